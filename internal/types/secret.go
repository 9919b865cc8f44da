package types

import "encoding/json"

const redacted = "[REDACTED]"

// SecretString holds a credential (Redis password, SQL DSN) and redacts it in
// every printable or serialized form except Value.
type SecretString struct {
	value string
}

func NewSecretString(value string) SecretString {
	return SecretString{value: value}
}

func (s SecretString) Value() string {
	return s.value
}

func (s SecretString) IsEmpty() bool {
	return s.value == ""
}

func (s SecretString) String() string {
	if s.value == "" {
		return ""
	}
	return redacted
}

// GoString keeps %#v from printing the raw value.
func (s SecretString) GoString() string {
	return "types.SecretString{" + s.String() + "}"
}

func (s SecretString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SecretString) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	s.value = value
	return nil
}
