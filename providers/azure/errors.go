package azure

import (
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// isNotFound reports whether err is an ARM 404. Absence is data for the
// reconciler, so callers map this to ObservedState{Exists: false}.
func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// isNameTaken reports whether err is an ARM conflict on a globally unique
// name (storage accounts claim names from a global namespace).
func isNameTaken(err error) bool {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return false
	}
	if respErr.StatusCode == http.StatusConflict {
		return true
	}
	return respErr.ErrorCode == "StorageAccountAlreadyTaken" || respErr.ErrorCode == "AlreadyExists"
}
