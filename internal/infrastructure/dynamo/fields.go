package dynamo

// DynamoDB attribute names used in key, condition, and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldAccountID    = "account_id"
	fieldEmail        = "email"
	fieldVerified     = "verified"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
	fieldPasswordHash = "password_hash"
	fieldCode         = "code"
	fieldExpiresAt    = "expires_at"

	fieldSessionID = "session_id"
	fieldEnable    = "enable"

	indexEmail     = "email-index"
	indexAccountID = "account_id-index"
)
