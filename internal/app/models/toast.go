package models

// ToastVariant selects the visual treatment of a notification.
type ToastVariant string

const (
	ToastSuccess ToastVariant = "success"
	ToastDanger  ToastVariant = "danger"
	ToastWarning ToastVariant = "warning"
	ToastInfo    ToastVariant = "info"
)

// Toast is a transient, identity-keyed user notification. Pushing a toast
// whose ID already exists replaces that toast's content in place instead of
// stacking a duplicate.
type Toast struct {
	ID         string       `json:"id"`
	Variant    ToastVariant `json:"variant"`
	Message    string       `json:"message"`
	AutoHide   bool         `json:"autoHide"`
	DurationMs int          `json:"duration"`
}
