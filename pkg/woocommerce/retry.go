package woocommerce

import "time"

// Outcome 单次请求的处理结论
type Outcome int

const (
	OutcomeSuccess Outcome = iota // 返回响应体
	OutcomeRetry                  // 可重试（传输失败 / 5xx）
	OutcomeFail                   // 终止（4xx）
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	case OutcomeFail:
		return "fail"
	}
	return "unknown"
}

// Classify 重试策略表
//
//	传输错误      -> retry
//	status >= 500 -> retry
//	400..499      -> fail
//	< 400         -> success
func Classify(statusCode int, transportErr error) Outcome {
	switch {
	case transportErr != nil:
		return OutcomeRetry
	case statusCode >= 500:
		return OutcomeRetry
	case statusCode >= 400:
		return OutcomeFail
	default:
		return OutcomeSuccess
	}
}

// Backoff 第 attempt 次失败后的等待时长（线性，非指数）
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(attempt)
}
