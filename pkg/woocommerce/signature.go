package woocommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader webhook 签名请求头
const SignatureHeader = "X-WC-Webhook-Signature"

// Verifier webhook 签名校验器
type Verifier struct {
	secret []byte
}

// NewVerifier 创建校验器，secret 为空时所有校验都失败
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Configured 是否配置了共享密钥
func (v *Verifier) Configured() bool {
	return v != nil && len(v.secret) > 0
}

// Verify 校验原始请求体的签名
// body 必须是线上收到的原始字节，不能是重新序列化后的 JSON
func (v *Verifier) Verify(body []byte, signature string) bool {
	if !v.Configured() || signature == "" {
		return false
	}
	expected := sign(v.secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign 计算 base64(HMAC-SHA256(secret, body))
func Sign(secret string, body []byte) string {
	return sign([]byte(secret), body)
}

func sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
