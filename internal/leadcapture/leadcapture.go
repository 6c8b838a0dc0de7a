// Package leadcapture validates and normalizes the public lead forms
// (sales inquiry, newsletter and community signup) into records ready to store.
package leadcapture

import (
	"errors"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type FormKind string

const (
	KindInquiry    FormKind = "inquiry"
	KindNewsletter FormKind = "newsletter"
	KindCommunity  FormKind = "community"
)

const (
	FieldName          = "name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldProductType   = "product_type"
	FieldMessage       = "message"
	FieldAttachmentURL = "attachment_url"
)

// StatusNew is the status every freshly captured record starts with.
const StatusNew = "new"

var ErrUnknownFormKind = errors.New("unknown_form_kind")

// ProductTypes are the choices offered on the inquiry form.
var ProductTypes = []string{
	"Carry Bags",
	"Shopping Bags",
	"Garbage Bags",
	"Custom Bags",
	"Other",
}

type fieldSpec struct {
	name     string
	required bool
}

var schemas = map[FormKind][]fieldSpec{
	KindInquiry: {
		{FieldName, true},
		{FieldEmail, true},
		{FieldPhone, false},
		{FieldProductType, false},
		{FieldMessage, true},
		{FieldAttachmentURL, false},
	},
	KindNewsletter: {
		{FieldName, false},
		{FieldEmail, true},
	},
	KindCommunity: {
		{FieldName, false},
		{FieldEmail, true},
	},
}

// emailPattern requires exactly one @ with a dot in the domain part.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SessionInfo identifies the signed-in visitor submitting a form, if any.
type SessionInfo struct {
	UserID snowflake.ID
	Email  string
}

type Record struct {
	Kind          FormKind
	Status        string
	UserID        *snowflake.ID
	Name          string
	Email         string
	Phone         string
	ProductType   string
	Message       string
	AttachmentURL string
}

func ParseFormKind(raw string) (FormKind, error) {
	kind := FormKind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := schemas[kind]; !ok {
		return "", ErrUnknownFormKind
	}
	return kind, nil
}

// Fields lists the field names accepted by the form, in display order.
func (k FormKind) Fields() []string {
	specs := schemas[k]
	out := make([]string, 0, len(specs))
	for _, spec := range specs {
		out = append(out, spec.name)
	}
	return out
}

// BuildRecord validates raw form input against the schema for kind. Every
// failing field is reported, in schema order. Fields outside the schema are
// ignored. The result carries status "new" and the session user, if any.
func BuildRecord(kind FormKind, fields map[string]string, session *SessionInfo) (Record, error) {
	specs, ok := schemas[kind]
	if !ok {
		return Record{}, ErrUnknownFormKind
	}

	values := make(map[string]string, len(specs))
	var errs []FieldError
	for _, spec := range specs {
		value := strings.TrimSpace(fields[spec.name])
		switch {
		case value == "" && spec.required:
			errs = append(errs, FieldError{Field: spec.name, Kind: Required})
			continue
		case value != "" && spec.name == FieldEmail && !emailPattern.MatchString(value):
			errs = append(errs, FieldError{Field: spec.name, Kind: InvalidFormat})
			continue
		}
		values[spec.name] = value
	}
	if len(errs) > 0 {
		return Record{}, &ValidationError{Errors: errs}
	}

	record := Record{
		Kind:          kind,
		Status:        StatusNew,
		Name:          values[FieldName],
		Email:         values[FieldEmail],
		Phone:         values[FieldPhone],
		ProductType:   values[FieldProductType],
		Message:       values[FieldMessage],
		AttachmentURL: values[FieldAttachmentURL],
	}
	if session != nil {
		userID := session.UserID
		record.UserID = &userID
	}
	return record, nil
}
