package table

import "errors"

var (
	ErrBadSpecifier = errors.New("bad stream specifier")
	ErrKeyNotFound  = errors.New("key not found")
	ErrFormat       = errors.New("malformed archive")
	ErrTerminal     = errors.New("refusing to write binary data to a terminal")
)
