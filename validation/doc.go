// Package validation validates structs with go-playground/validator and
// reports failures as *errors.AppError.
//
// Field names in messages follow the json tag, then the mapstructure tag,
// so request bodies and configuration files report the names users wrote:
//
//	type Request struct {
//	    URL string `json:"url" validate:"required,url"`
//	}
//	err := validation.Validate(req) // "url: must be a valid URL"
package validation
