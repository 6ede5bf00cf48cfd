package handler

type ContextKey string

var (
	RequestIDCtxKey ContextKey = "requestID"
	RoleCtxKey      ContextKey = "role"
	SubCtxKey       ContextKey = "sub"
	EmailCtxKey     ContextKey = "email"
	AccountCtx      ContextKey = "account"
	JobCtx          ContextKey = "job"
)
