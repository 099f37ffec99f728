package core

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestErrors_CarryStableCodes(t *testing.T) {
	binding := HandlerBinding{Namespace: NamespacePrimary, EventType: "invoice.paid", Owner: "billing", Method: "OnPaid"}
	cases := []struct {
		name     string
		err      *goerrors.Error
		category goerrors.Category
		code     int
		textCode string
	}{
		{"no secrets", NoSecretsProvidedError(), goerrors.CategoryValidation, http.StatusInternalServerError, ServiceErrorNoSecrets},
		{"invalid config", InvalidConfigError(errors.New("bad")), goerrors.CategoryValidation, http.StatusBadRequest, ServiceErrorInvalidConfig},
		{"missing owner", MissingRouterOwnerError(nil), goerrors.CategoryInternal, http.StatusInternalServerError, ServiceErrorMissingRouterOwner},
		{"duplicate", DuplicateHandlerError(binding), goerrors.CategoryConflict, http.StatusConflict, ServiceErrorDuplicateHandler},
		{"handler", HandlerInvocationError(errors.New("boom"), binding), goerrors.CategoryOperation, http.StatusInternalServerError, ServiceErrorHandlerFailed},
		{"verification", VerificationError(errors.New("sig"), NamespaceConnect), goerrors.CategoryAuth, http.StatusBadRequest, ServiceErrorVerificationFailed},
		{"not ready", RouterNotReadyError(StateDiscovering), goerrors.CategoryInternal, http.StatusInternalServerError, ServiceErrorRouterNotReady},
		{"namespace", UnsupportedNamespaceError("test"), goerrors.CategoryBadInput, http.StatusBadRequest, ServiceErrorUnsupportedNamespace},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Category != tc.category {
				t.Fatalf("expected category %q, got %q", tc.category, tc.err.Category)
			}
			if tc.err.Code != tc.code {
				t.Fatalf("expected code %d, got %d", tc.code, tc.err.Code)
			}
			if tc.err.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, tc.err.TextCode)
			}
		})
	}
}

func TestErrors_Taxonomy(t *testing.T) {
	binding := HandlerBinding{Namespace: NamespacePrimary, EventType: "invoice.paid", Owner: "billing", Method: "OnPaid"}
	if !IsConfigError(NoSecretsProvidedError()) || !IsConfigError(InvalidConfigError(errors.New("x"))) {
		t.Fatalf("expected config errors")
	}
	if !IsDiscoveryError(MissingRouterOwnerError(nil)) || !IsDiscoveryError(DuplicateHandlerError(binding)) {
		t.Fatalf("expected discovery errors")
	}
	if !IsHandlerInvocationError(HandlerInvocationError(errors.New("x"), binding)) {
		t.Fatalf("expected handler invocation error")
	}
	if !IsVerificationError(VerificationError(nil, NamespacePrimary)) {
		t.Fatalf("expected verification error")
	}
	if IsConfigError(errors.New("plain")) || IsDiscoveryError(nil) {
		t.Fatalf("plain errors must not classify")
	}
	if IsConfigError(DuplicateHandlerError(binding)) {
		t.Fatalf("discovery error must not classify as config error")
	}
}

func TestHandlerInvocationError_WrapsSource(t *testing.T) {
	source := errors.New("ledger unavailable")
	err := HandlerInvocationError(source, HandlerBinding{Namespace: NamespacePrimary, EventType: "invoice.paid"})
	if !errors.Is(err, source) {
		t.Fatalf("expected wrapped source error")
	}
	if !HasTextCode(err, " service_webhook_handler_failed ") {
		t.Fatalf("expected case-insensitive text code match")
	}
}
