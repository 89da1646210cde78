package helper

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
)

var (
	validate   *validator.Validate
	translator ut.Translator
	initOnce   sync.Once
)

func initValidator() {
	validate = validator.New()
	uni := ut.New(en.New())
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report json names instead of Go struct names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerTranslation("required", "this field is required", true)
}

func registerTranslation(tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func Validator() *validator.Validate {
	initOnce.Do(initValidator)
	return validate
}

// ValidateStruct returns per-field messages keyed by json name, or nil.
func ValidateStruct(v any) map[string][]string {
	initOnce.Do(initValidator)
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	out := map[string][]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["_"] = []string{err.Error()}
		return out
	}
	for _, fe := range verrs {
		key := fe.Field()
		if ns := fe.Namespace(); strings.Contains(ns, ".") {
			key = ns[strings.Index(ns, ".")+1:]
		}
		out[key] = append(out[key], fe.Translate(translator))
	}
	return out
}

// BindAndValidate parses the body into dst and validates it, writing the error
// response itself. A nil return with ok=false means the response is already sent.
func BindAndValidate(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, JsonError(c, fiber.StatusBadRequest, "invalid json body")
	}
	if errs := ValidateStruct(dst); errs != nil {
		return false, JsonValidationError(c, errs)
	}
	return true, nil
}
