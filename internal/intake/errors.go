package intake

import "errors"

var (
	ErrUnknownKind       = errors.New("unknown form kind")
	ErrUnknownVariant    = errors.New("unknown flow variant")
	ErrUnknownStatus     = errors.New("unknown case status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidPatch      = errors.New("patch must be a JSON object")
	ErrUnknownStep       = errors.New("unknown step")
	ErrFinalStep         = errors.New("step has no successor")
	ErrSaveFailed        = errors.New("save failed")
	ErrNotEditable       = errors.New("case is no longer editable")
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrNoAttachments     = errors.New("at least one attachment is required")
	ErrClosed            = errors.New("controller is closed")
)
