package errors

// Error code constants returned in the "error" field of every error body.
// Format: CATEGORY_SPECIFIC_DETAIL. The storefront maps codes to messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email or password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed or forged token
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // email already registered

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"      // no access
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND" // role missing from context
	AuthzStaffOnly    = "AUTHZ_STAFF_ONLY"     // back-office only

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // bad payload
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // bad path id
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // bad format
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"  // out of range
	ValidationRequired      = "VALIDATION_REQUIRED"       // missing field

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // not found
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // duplicate
	ResourceConflict      = "RESOURCE_CONFLICT"       // conflicting state

	// ==================== Catalog (PRODUCT_) ====================
	ProductNotFound        = "PRODUCT_NOT_FOUND"         // product missing or inactive
	ProductVariantNotFound = "PRODUCT_VARIANT_NOT_FOUND" // variant missing
	ProductVariantExists   = "PRODUCT_VARIANT_EXISTS"    // duplicate size/color

	// ==================== Cart (CART_) ====================
	CartOutOfStock   = "CART_OUT_OF_STOCK"   // quantity above stock
	CartItemNotFound = "CART_ITEM_NOT_FOUND" // item missing or foreign

	// ==================== Checkout (CHECKOUT_) ====================
	CheckoutInvalidState = "CHECKOUT_INVALID_STATE" // empty cart, bad address

	// ==================== Orders (ORDER_) ====================
	OrderNotFound          = "ORDER_NOT_FOUND"          // order missing or foreign
	OrderDuplicateNumber   = "ORDER_DUPLICATE_NUMBER"   // order number collision
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION" // status move not allowed
	OrderInvalidStatus     = "ORDER_INVALID_STATUS"     // unknown status
	OrderNotPayable        = "ORDER_NOT_PAYABLE"        // payment on a non-pending order

	// ==================== Addresses (ADDRESS_) ====================
	AddressNotFound = "ADDRESS_NOT_FOUND" // address missing or foreign

	// ==================== Try-on (TRYON_) ====================
	TryOnGenerationFailed = "TRYON_GENERATION_FAILED" // image service failed
	TryOnRateLimited      = "TRYON_RATE_LIMITED"      // too many attempts
	TryOnInvalidImage     = "TRYON_INVALID_IMAGE"     // missing or unsupported photo

	// ==================== Receipts (RECEIPT_) ====================
	ReceiptGenerationFailed = "RECEIPT_GENERATION_FAILED" // PDF rendering failed

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE" // unsupported content type
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"    // over the size limit
	UploadFailed          = "UPLOAD_FAILED"            // storage error

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // unexpected failure
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // database failure
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // upstream failure
)
