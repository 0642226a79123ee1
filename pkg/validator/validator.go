package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/scribe-api/internal/model"
)

var allowedAudioTypes = map[string]struct{}{
	"audio/mpeg":  {},
	"audio/mp3":   {},
	"audio/wav":   {},
	"audio/x-wav": {},
	"audio/m4a":   {},
	"audio/x-m4a": {},
	"audio/ogg":   {},
	"audio/webm":  {},
}

// IsAllowedAudioType reports whether the content type is accepted for
// recording uploads.
func IsAllowedAudioType(contentType string) bool {
	_, ok := allowedAudioTypes[contentType]
	return ok
}

// RegisterCustom wires custom validations into gin's binding validator.
func RegisterCustom() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("notestatus", func(fl validator.FieldLevel) bool {
		switch model.NoteStatus(fl.Field().String()) {
		case model.NoteStatusDraft, model.NoteStatusGenerated, model.NoteStatusReviewed,
			model.NoteStatusFinalized, model.NoteStatusExported:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("audiotype", func(fl validator.FieldLevel) bool {
		return IsAllowedAudioType(fl.Field().String())
	})
}
