package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validator's max rule counts runes for strings, so limits are in characters.
var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	identityRule = fmt.Sprintf("required,max=%d", MaxIdentityLen)
	roomNameRule = fmt.Sprintf("required,max=%d", MaxRoomNameLen)
	contentRule  = fmt.Sprintf("required,max=%d", MaxContentLen)
)

func clean(raw, rule string) (string, bool) {
	v := strings.TrimSpace(raw)
	if err := validate.Var(v, rule); err != nil {
		return "", false
	}
	return v, true
}
