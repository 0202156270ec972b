package contact

import (
	"errors"
	"fmt"
)

// ErrNotFound 可用 errors.Is 匹配所有 *NotFoundError
var ErrNotFound = errors.New("contact not found")

// NotFoundError：按身份查不到联系人
// 在附近查询中出现时表示签到记录与联系人全集不一致，属于不变量被破坏。
type NotFoundError struct {
	UserPrincipalName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("contact %q not found", e.UserPrincipalName)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransportError：远端查询的网络或协议失败，原样携带底层错误
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return "contact store " + e.Op + ": " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Transport 包装底层错误；nil 原样返回
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
