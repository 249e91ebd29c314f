package resputil

type ErrorCode int

const (
	OK ErrorCode = 0

	// General
	InvalidRequest ErrorCode = 40001

	// Planning core
	InvalidHierarchy        ErrorCode = 40002
	CircularHierarchy       ErrorCode = 40003
	InvalidStatusTransition ErrorCode = 40004
	DuplicateKey            ErrorCode = 40005

	// Token
	TokenExpired ErrorCode = 40101
	TokenInvalid ErrorCode = 40102

	// Actor is not allowed to perform the operation
	UserNotAllowed ErrorCode = 40301

	// Referenced entity does not exist
	EntityNotFound ErrorCode = 40401

	// Indicates laziness of the developer
	// Frontend will directly print the message without any translation
	NotSpecified ErrorCode = 99999
)
