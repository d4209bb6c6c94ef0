package views

import "github.com/eringen/snipmail"

// Funcs bundles this package's components into the ViewFuncs struct the App
// renders through. A custom installation can take this and override fields.
func Funcs() snipmail.ViewFuncs {
	return snipmail.ViewFuncs{
		Login:              Login,
		Dashboard:          Dashboard,
		SnippetListPartial: SnippetListPartial,
		SnippetDetail:      SnippetDetail,
		SnippetForm:        SnippetForm,
		PublicSnippet:      PublicSnippet,
		Composer:           Composer,
		Settings:           Settings,
		Images:             Images,
		NotFound:           NotFound,
		ServerError:        ServerError,
	}
}
