package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput             = "SERVICE_BAD_INPUT"
	ServiceErrorInternal             = "SERVICE_INTERNAL_ERROR"
	ServiceErrorNoSecrets            = "SERVICE_WEBHOOK_NO_SECRETS"
	ServiceErrorInvalidConfig        = "SERVICE_WEBHOOK_INVALID_CONFIG"
	ServiceErrorMissingRouterOwner   = "SERVICE_WEBHOOK_MISSING_ROUTER_OWNER"
	ServiceErrorDuplicateHandler     = "SERVICE_WEBHOOK_DUPLICATE_HANDLER"
	ServiceErrorHandlerFailed        = "SERVICE_WEBHOOK_HANDLER_FAILED"
	ServiceErrorVerificationFailed   = "SERVICE_WEBHOOK_VERIFICATION_FAILED"
	ServiceErrorRouterNotReady       = "SERVICE_WEBHOOK_ROUTER_NOT_READY"
	ServiceErrorInvalidTransition    = "SERVICE_WEBHOOK_INVALID_TRANSITION"
	ServiceErrorUnsupportedNamespace = "SERVICE_WEBHOOK_UNSUPPORTED_NAMESPACE"
)

const (
	metadataKeyErrorKind       = "error_kind"
	errorKindConfig            = "config"
	errorKindDiscovery         = "discovery"
	errorKindHandlerInvocation = "handler_invocation"
	errorKindVerification      = "verification"
	errorKindLifecycle         = "lifecycle"
)

// BadInputError reports caller supplied values that cannot be used.
func BadInputError(message string, metadata map[string]any) *goerrors.Error {
	return newError(message, goerrors.CategoryBadInput, http.StatusBadRequest, ServiceErrorBadInput, "", metadata)
}

// InternalError reports misuse of the module by the embedding application.
func InternalError(message string, metadata map[string]any) *goerrors.Error {
	return newError(message, goerrors.CategoryInternal, http.StatusInternalServerError, ServiceErrorInternal, "", metadata)
}

// NoSecretsProvidedError is the fatal boot condition raised when webhook
// configuration exists but carries neither namespace secret.
func NoSecretsProvidedError() *goerrors.Error {
	return newError(
		"webhooks: configuration supplied without primary or connect secret",
		goerrors.CategoryValidation,
		http.StatusInternalServerError,
		ServiceErrorNoSecrets,
		errorKindConfig,
		map[string]any{"namespaces": NamespaceNames()},
	)
}

// InvalidConfigError wraps a configuration validation failure.
func InvalidConfigError(source error) *goerrors.Error {
	return wrapError(
		source,
		"webhooks: invalid configuration",
		goerrors.CategoryValidation,
		http.StatusBadRequest,
		ServiceErrorInvalidConfig,
		errorKindConfig,
		nil,
	)
}

// MissingRouterOwnerError is raised when no entry point exists to receive the
// constructed router.
func MissingRouterOwnerError(metadata map[string]any) *goerrors.Error {
	return newError(
		"webhooks: no entry point registered to own the router",
		goerrors.CategoryInternal,
		http.StatusInternalServerError,
		ServiceErrorMissingRouterOwner,
		errorKindDiscovery,
		metadata,
	)
}

func DuplicateHandlerError(binding HandlerBinding) *goerrors.Error {
	return newError(
		"webhooks: handler already registered for event type",
		goerrors.CategoryConflict,
		http.StatusConflict,
		ServiceErrorDuplicateHandler,
		errorKindDiscovery,
		binding.fields(),
	)
}

// HandlerInvocationError wraps a failed or panicking handler. It is recorded
// by the router and never returned to the entry point.
func HandlerInvocationError(source error, binding HandlerBinding) *goerrors.Error {
	return wrapError(
		source,
		"webhooks: handler invocation failed",
		goerrors.CategoryOperation,
		http.StatusInternalServerError,
		ServiceErrorHandlerFailed,
		errorKindHandlerInvocation,
		binding.fields(),
	)
}

func VerificationError(source error, namespace Namespace) *goerrors.Error {
	return wrapError(
		source,
		"webhooks: event verification failed",
		goerrors.CategoryAuth,
		http.StatusBadRequest,
		ServiceErrorVerificationFailed,
		errorKindVerification,
		map[string]any{"namespace": namespace.String()},
	)
}

func RouterNotReadyError(state InitializationState) *goerrors.Error {
	return newError(
		"webhooks: dispatch attempted before router is ready",
		goerrors.CategoryInternal,
		http.StatusInternalServerError,
		ServiceErrorRouterNotReady,
		errorKindLifecycle,
		map[string]any{"state": state.String()},
	)
}

func InvalidTransitionError(from InitializationState, to InitializationState) *goerrors.Error {
	return newError(
		"webhooks: invalid initialization transition",
		goerrors.CategoryInternal,
		http.StatusInternalServerError,
		ServiceErrorInvalidTransition,
		errorKindLifecycle,
		map[string]any{"from": from.String(), "to": to.String()},
	)
}

func UnsupportedNamespaceError(namespace Namespace) *goerrors.Error {
	return newError(
		"webhooks: unsupported namespace",
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		ServiceErrorUnsupportedNamespace,
		"",
		map[string]any{"namespace": string(namespace)},
	)
}

// IsConfigError reports whether err is a fatal boot configuration error.
func IsConfigError(err error) bool {
	return errorKindOf(err) == errorKindConfig
}

// IsDiscoveryError reports whether err was raised while building dispatch tables.
func IsDiscoveryError(err error) bool {
	return errorKindOf(err) == errorKindDiscovery
}

func IsHandlerInvocationError(err error) bool {
	return errorKindOf(err) == errorKindHandlerInvocation
}

func IsVerificationError(err error) bool {
	return errorKindOf(err) == errorKindVerification
}

// HasTextCode reports whether err carries the given stable text code.
func HasTextCode(err error, textCode string) bool {
	return strings.EqualFold(textCodeOf(err), strings.TrimSpace(textCode))
}

var errorKindsByTextCode = map[string]string{
	ServiceErrorNoSecrets:          errorKindConfig,
	ServiceErrorInvalidConfig:      errorKindConfig,
	ServiceErrorMissingRouterOwner: errorKindDiscovery,
	ServiceErrorDuplicateHandler:   errorKindDiscovery,
	ServiceErrorHandlerFailed:      errorKindHandlerInvocation,
	ServiceErrorVerificationFailed: errorKindVerification,
	ServiceErrorRouterNotReady:     errorKindLifecycle,
	ServiceErrorInvalidTransition:  errorKindLifecycle,
}

func errorKindOf(err error) string {
	return errorKindsByTextCode[textCodeOf(err)]
}

func textCodeOf(err error) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich == nil {
		return ""
	}
	return strings.TrimSpace(rich.TextCode)
}

func newError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	kind string,
	metadata map[string]any,
) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if fields := withErrorKind(metadata, kind); len(fields) > 0 {
		err.WithMetadata(fields)
	}
	return err
}

func wrapError(
	source error,
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	kind string,
	metadata map[string]any,
) *goerrors.Error {
	if source == nil {
		return newError(message, category, code, textCode, kind, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if fields := withErrorKind(metadata, kind); len(fields) > 0 {
		err.WithMetadata(fields)
	}
	return err
}

func withErrorKind(metadata map[string]any, kind string) map[string]any {
	fields := cloneFields(metadata)
	if kind != "" {
		fields[metadataKeyErrorKind] = kind
	}
	return fields
}
