// Package locale loads the localized messages handed to the delegate via --language.
package locale
