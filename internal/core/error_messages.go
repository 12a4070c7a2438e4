package core

// error_messages.go maps technical errors to messages an admin can act on.
//
// Codes are grouped for support reference:
//
//	DB001-DB006    catalog database errors (constraints, connectivity)
//	RLS001-RLS003  row-level security rejections
//	FILE001-FILE005 upload problems (size, emptiness, format)
//	IMP001-IMP007  import and export job errors
//	RATE001        request throttling
//	ERR000         anything else; check the logs for the technical error
//
// Sentinel errors are matched first with errors.Is. Remaining errors are
// matched case-insensitively by substring, first match wins, so specific
// patterns must precede general ones.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/catalogio/internal/catalog"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

var (
	msgNoStores = UserMessage{
		Message: "No stores available",
		Action:  "Create a store before importing products",
		Code:    "IMP001",
	}
	msgNoCategories = UserMessage{
		Message: "No categories available",
		Action:  "Create at least one category before importing products",
		Code:    "IMP002",
	}
	msgBusy = UserMessage{
		Message: "Other imports are still running",
		Action:  "Please wait a moment and try again",
		Code:    "IMP003",
	}
	msgImportNotFound = UserMessage{
		Message: "Import not found",
		Action:  "The import may have expired. Start a new import",
		Code:    "IMP004",
	}
	msgTimeout = UserMessage{
		Message: "The import took too long and was stopped",
		Action:  "Split the file into smaller parts and import them separately",
		Code:    "IMP005",
	}
	msgCanceled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "IMP006",
	}
	msgPublishDisabled = UserMessage{
		Message: "Export publishing is not available",
		Action:  "Download the export instead",
		Code:    "IMP007",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller parts",
		Code:    "FILE001",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a CSV file with a header row and product rows",
		Code:    "FILE002",
	}
	msgUnknownFormat = UserMessage{
		Message: "Unknown export format",
		Action:  "Choose simple or shopify",
		Code:    "FILE005",
	}
	msgPermission = UserMessage{
		Message: "The catalog rejected the change",
		Action:  "Check the row-level security policies for this account",
		Code:    "RLS003",
	}
)

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrNoStores, msgNoStores},
	{ErrNoCategories, msgNoCategories},
	{ErrTooManyImports, msgBusy},
	{ErrImportNotFound, msgImportNotFound},
	{ErrFileTooLarge, msgTooLarge},
	{ErrPublishingDisabled, msgPublishDisabled},
	{catalog.ErrEmptyFile, msgEmptyFile},
	{catalog.ErrUnknownFormat, msgUnknownFormat},
	{ErrPermissionDenied, msgPermission},
	{context.DeadlineExceeded, msgTimeout},
	{context.Canceled, msgCanceled},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Row-level security
	{"rls policy prevents category", UserMessage{
		Message: "Categories cannot be created with the current permissions",
		Action:  "Create the category manually or ask an administrator to adjust its policy",
		Code:    "RLS001",
	}},
	{"rls policy prevents product", UserMessage{
		Message: "Products cannot be created with the current permissions",
		Action:  "Ask an administrator to adjust the products policy",
		Code:    "RLS002",
	}},
	{"row-level security", msgPermission},
	{"permission denied", msgPermission},

	// Database constraints and connectivity
	{"duplicate key", UserMessage{
		Message: "A product with this slug already exists",
		Action:  "Give the product a unique slug or remove the duplicate row",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check for duplicate rows in your CSV",
		Code:    "DB002",
	}},
	{"foreign key", UserMessage{
		Message: "The product references a store or category that does not exist",
		Action:  "Check the category names in your file",
		Code:    "DB003",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to reach the catalog database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "The catalog connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB006",
	}},

	// Files
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Select a CSV file to import",
		Code:    "FILE004",
	}},
	{"open workbook", UserMessage{
		Message: "The spreadsheet could not be read",
		Action:  "Save it as .xlsx or export it as CSV (UTF-8)",
		Code:    "FILE003",
	}},

	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for nil and ERR000 when nothing matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err, keeping the original reachable through Unwrap.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
