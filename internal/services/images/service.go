// Package images выдаёт адреса демонстрационных фотографий вместо загрузки файлов.
package images

import (
	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

var placeholderImages = []string{
	"https://images.pexels.com/photos/1396122/pexels-photo-1396122.jpeg",
	"https://images.pexels.com/photos/1571460/pexels-photo-1571460.jpeg",
	"https://images.pexels.com/photos/1643383/pexels-photo-1643383.jpeg",
	"https://images.pexels.com/photos/1571453/pexels-photo-1571453.jpeg",
	"https://images.pexels.com/photos/1080721/pexels-photo-1080721.jpeg",
	"https://images.pexels.com/photos/1457842/pexels-photo-1457842.jpeg",
	"https://images.pexels.com/photos/1571468/pexels-photo-1571468.jpeg",
	"https://images.pexels.com/photos/1648776/pexels-photo-1648776.jpeg",
	"https://images.pexels.com/photos/1571471/pexels-photo-1571471.jpeg",
	"https://images.pexels.com/photos/1648771/pexels-photo-1648771.jpeg",
}

// Placeholders возвращает count адресов для объявления, у которого уже
// existing фотографий. Общее число не может превышать models.MaxImages.
func Placeholders(existing, count int) ([]string, error) {
	if existing < 0 || count <= 0 {
		return nil, apperrors.NewValidationError("count", "Укажите количество фотографий")
	}
	if existing+count > models.MaxImages {
		return nil, apperrors.NewValidationError("count", "Максимум 20 фотографий")
	}

	out := make([]string, count)
	for i := range out {
		out[i] = placeholderImages[i%len(placeholderImages)]
	}
	return out, nil
}
