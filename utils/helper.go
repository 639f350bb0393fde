package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
)

var validate = validator.New()

// FormatPhoneNumber returns the E.164 form of a valid number.
func FormatPhoneNumber(phoneNumber, countryCode string) (string, error) {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// ValidateStruct runs `validate` tags and returns a ValidationError keyed by
// lower-camel field namespace, e.g. `details[0].quantity`.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	return FieldErrors(ProcessValidationErrors(ve)).Err()
}

func ProcessValidationErrors(validationErrors validator.ValidationErrors) map[string]string {
	errorResponse := make(map[string]string)
	for _, fe := range validationErrors {
		errorResponse[fieldPath(fe.Namespace())] = fe.Field() + " failed on " + fe.Tag()
	}
	return errorResponse
}

// fieldPath drops the struct name and lower-cases the first letter of each segment.
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = LowercaseFirst(p)
	}
	return strings.Join(parts, ".")
}

func UniqueSlice[T comparable](slice []T) []T {
	seen := make(map[T]bool, len(slice))
	result := make([]T, 0, len(slice))
	for _, v := range slice {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

// ExecTemplate renders a text/template SQL string; bind values still go through gorm.
func ExecTemplate(tString string, data map[string]interface{}) (string, error) {
	t, err := template.New("sql").Parse(tString)
	if err != nil {
		return "", errors.New("error parsing sql template: " + err.Error())
	}
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", errors.New("failed to execute sql template: " + err.Error())
	}
	return b.String(), nil
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

func LowercaseFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// DocumentLock takes a best-effort redis lock on key and returns its release func.
// When redis is not connected the release func is a no-op and err is nil; the
// database row locks remain the source of truth.
func DocumentLock(ctx context.Context, key string, moduleName string, functionName string) (func(), error) {
	noop := func() {}
	if !config.DocumentLocksEnabled() {
		return noop, nil
	}
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return noop, nil
	}
	lock, err := locker.Obtain(ctx, "lock:"+key, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "Could not obtain document lock", key, err)
		return noop, NewConflictError("document %s is being modified by another request, try again", key)
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining document lock", key, err)
		return noop, nil
	}
	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			config.LogError(logger, moduleName, functionName, "Release document lock", key, releaseErr)
		}
	}, nil
}
