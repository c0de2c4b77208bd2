// Package translate formats user-facing messages for the host locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:generate go tool gotext -srclang=en-US update -out=catalog.go -lang=en-US github.com/ezrec/rv32sim/cpu github.com/ezrec/rv32sim/emulator github.com/ezrec/rv32sim/word

var (
	tag     language.Tag
	printer *message.Printer
)

func init() {
	SetLocale()
}

// SetLocale selects the message language from a list of preferred BCP 47
// locales. With no locales, the host locales are used, or en-US if the host
// has none. Sentinel error text is fixed at package initialization.
func SetLocale(locales ...string) {
	if len(locales) == 0 {
		var err error
		locales, err = locale.GetLocales()
		if err != nil {
			log.Printf("rv32sim: locale: %v", err)
		}
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	tag = message.MatchLanguage(locales...)
	printer = message.NewPrinter(tag)
}

// Language returns the selected message language.
func Language() language.Tag {
	return tag
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
