package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/de"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	WUSNummerTag   = "wusnummer"
	WUSNummerText  = "WUS-Nummer muss 7-stellig sein und nur Zahlen enthalten"
	WUSNummerRegex = regexp.MustCompile(`^\d{7}$`)

	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "nur Buchstaben, Ziffern sowie . _ - @ sind erlaubt"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w.\-@]+$`)

	notBlankTag  = "notblank"
	notBlankText = "dieses Feld darf nicht leer sein"

	dateTag  = "datum"
	dateText = "ungültiges Datum (erwartet: JJJJ-MM-TT oder TT.MM.JJJJ)"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "Feld '{0}' ist erforderlich"

	emailTag  = "email"
	emailText = "Ungültige E-Mail-Adresse"

	oneOfTag  = "oneof"
	oneOfText = "ungültiger Wert"

	maxTag  = "max"
	maxText = "Eingabe ist zu lang"

	eqFieldTag  = "eqfield"
	eqFieldText = "Eingaben stimmen nicht überein"
)

// NewTranslator returns the German translator used for validation messages.
func NewTranslator() ut.Translator {
	_de := de.New()
	uni := ut.New(_de, _de)
	translator, _ := uni.GetTranslator("de")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	// default (english) texts for the tags we do not override below
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(WUSNummerTag, wusNummerValidation)
	RegisterCustomTranslation(validate, translator, WUSNummerTag, WUSNummerText)

	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	_ = validate.RegisterValidation(dateTag, dateValidation)
	RegisterCustomTranslation(validate, translator, dateTag, dateText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, emailTag, emailText, true)
	RegisterCustomTranslation(validate, translator, oneOfTag, oneOfText, true)
	RegisterCustomTranslation(validate, translator, maxTag, maxText, true)
	RegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// IsValidWUSNummer reports whether `wus` is a 7 digit WUS-Nummer.
func IsValidWUSNummer(wus string) bool {
	return WUSNummerRegex.MatchString(wus)
}

// Custom Global Validators

func wusNummerValidation(fl validator.FieldLevel) bool {
	return IsValidWUSNummer(fl.Field().String())
}

// alphaNumUnderValidation only allows alphanumeric characters, underscores, dots, dashes and @.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// dateValidation accepts strings parseable by ParseDate.
func dateValidation(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}
