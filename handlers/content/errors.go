package content

import "errors"

var (
	errTitleRequired = errors.New("title is required")
	errFileRequired  = errors.New("file is required")
	errFileTooLarge  = errors.New("file must not exceed 20MB")
)
