package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an operator-facing message plus a user-facing one.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewConnectionError(service string, cause error) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     fmt.Sprintf("connection to %s failed", service),
		UserMessage: "فشل الاتصال. يرجى التحقق من إعدادات الاتصال والمحاولة مرة أخرى.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewAuthenticationError(cause error) *AppError {
	return &AppError{
		Code:        "E200",
		Message:     "authentication failed",
		UserMessage: "خطأ في المصادقة. يرجى التحقق من بيانات الاعتماد.",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       cause,
	}
}

// NewRateLimitError builds the user-facing "too many requests" error with
// the retry-after hint obtained from the limiter.
func NewRateLimitError(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfterSeconds),
		UserMessage: fmt.Sprintf("تم تجاوز الحد المسموح. يرجى المحاولة بعد %d ثانية.", retryAfterSeconds),
		Severity:    SeverityLow,
		Retryable:   true,
		cause:       nil,
	}
}

// NewCircuitOpenError signals a fast rejection while a dependency cools down.
func NewCircuitOpenError(service string, cause error) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     fmt.Sprintf("%s is temporarily unavailable (circuit open)", service),
		UserMessage: "الخدمة غير متاحة مؤقتاً. يرجى المحاولة لاحقاً.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewRetryExhaustedError(operation string, cause error) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("%s failed after exhausting retries", operation),
		UserMessage: "فشلت العملية بعد عدة محاولات. يرجى المحاولة لاحقاً.",
		Severity:    SeverityHigh,
		Retryable:   false,
		cause:       cause,
	}
}
