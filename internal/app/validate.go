package app

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"cohort-portal-service/internal/domain"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	notBlankTag      = "notblank"
	answerInOptTag   = "answer_in_options"
	customTagMessage = map[string]string{
		notBlankTag:    "cannot be blank",
		answerInOptTag: "must match one of the options",
	}
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names, not Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	validate.RegisterStructValidation(questionStructValidation, QuestionInput{})

	noop := func(ut.Translator) error { return nil }
	for tag := range customTagMessage {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	return fe.Field() + " " + customTagMessage[fe.Tag()]
}

func notBlank(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(fl.Field().String()) != ""
}

// questionStructValidation requires the answer to be one of the options.
func questionStructValidation(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(QuestionInput)
	if !ok || strings.TrimSpace(q.Answer) == "" {
		return
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == strings.TrimSpace(q.Answer) {
			return
		}
	}
	sl.ReportError(q.Answer, "answer", "Answer", answerInOptTag, "")
}

// validateInput runs struct validation and converts failures into a
// *domain.ValidationError keyed by the JSON path of each field.
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: fe.Translate(translator),
		})
	}
	return domain.NewValidationError(fields...)
}

// fieldPath drops the struct name from a namespace like "NewQuiz.questions[0].answer".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldError(field, message string) error {
	return domain.NewValidationError(domain.FieldError{Field: field, Message: message})
}
