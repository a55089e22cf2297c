package myra

import "github.com/mvp-express/the-framework/internal/errs"

// ErrUnknownMethodID is returned by a generated Dispatcher when an envelope's
// methodId does not match any of the service's declared methods.
var ErrUnknownMethodID = errs.New(errs.CatUser, errs.TypeUnknownMessageID, "myra: method id not handled by this dispatcher")

// ErrUnexpectedRequestType is returned by a generated Dispatcher when Decode resolves
// a type that does not match the method's declared request message. This can only
// happen if a caller registers a message id to the wrong Go type.
var ErrUnexpectedRequestType = errs.New(errs.CatInternal, errs.TypeUnsupportedField, "myra: decoded request type did not match method's declared request type")
