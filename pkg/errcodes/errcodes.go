package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	InvalidPaging       failure.ErrorCode = "InvalidPaging"

	// Marketplace provider.
	ProviderUnavailable failure.ErrorCode = "ProviderUnavailable" // network error or bad upstream response
	RateLimited         failure.ErrorCode = "RateLimited"         // upstream request-rate ceiling hit
	OfferNotFound       failure.ErrorCode = "OfferNotFound"       // listing has no featured-offer holder

	// Persistence.
	StoreFailure       failure.ErrorCode = "StoreFailure"
	SubjectNotFound    failure.ErrorCode = "SubjectNotFound"
	SellerNotFound     failure.ErrorCode = "SellerNotFound"
	ItemNotFound       failure.ErrorCode = "ItemNotFound"
	OfferStateNotFound failure.ErrorCode = "OfferStateNotFound"
	AlreadyTracked     failure.ErrorCode = "AlreadyTracked"

	// Notification. Always swallowed after logging, never propagated.
	NotifyFailure failure.ErrorCode = "NotifyFailure"

	// Request validation.
	InvalidItemID     failure.ErrorCode = "InvalidItemID"
	InvalidSellerID   failure.ErrorCode = "InvalidSellerID"
	InvalidWebhookURL failure.ErrorCode = "InvalidWebhookURL"
	InvalidSubjectID  failure.ErrorCode = "InvalidSubjectID"
)
