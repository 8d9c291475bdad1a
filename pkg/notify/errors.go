package notify

import "errors"

var ErrInvalidConfig = errors.New("invalid notify config")
