package model

// AlertType selects the icon and button colour of alerts and confirms.
type AlertType string

const (
	AlertSuccess AlertType = "success"
	AlertError   AlertType = "error"
	AlertWarning AlertType = "warning"
	AlertInfo    AlertType = "info"
)

// AlertState is a dismissible message dialog.
type AlertState struct {
	Open        bool
	Type        AlertType
	Title       string
	Message     string
	ConfirmText string
	Redirect    string // followed when the alert is dismissed
}

// ConfirmState asks before a destructive or saving action.
type ConfirmState struct {
	Open        bool
	Type        AlertType
	Title       string
	Message     string
	ConfirmText string
	CancelText  string
	Action      string // form action posted on confirm
}

// NewAlert returns an open alert.
func NewAlert(t AlertType, title, message, confirmText string) *AlertState {
	return &AlertState{Open: true, Type: t, Title: title, Message: message, ConfirmText: confirmText}
}

// NewConfirm returns an open confirm dialog with default button labels.
func NewConfirm(t AlertType, title, message, action string) *ConfirmState {
	return &ConfirmState{
		Open:        true,
		Type:        t,
		Title:       title,
		Message:     message,
		ConfirmText: "Confirm",
		CancelText:  "Cancel",
		Action:      action,
	}
}
