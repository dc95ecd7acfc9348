// Package validation provides the form definitions of the board and the pure
// functions that validate them.
//
// Forms are plain structs tagged for go-playground/validator. Validation
// returns FieldErrors in declaration order so views can render them next to
// the inputs they belong to.
//
// # Usage
//
//	form := validation.QuestionForm{Subject: subject, Content: content}
//	if errs := validation.Validate(form); errs.Any() {
//	    // re-render the form with errs
//	}
package validation
