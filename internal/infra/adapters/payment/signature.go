package payment

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"telegram-subscription-shop/internal/domain"
	"telegram-subscription-shop/internal/domain/model"
)

// LinkSignatureInput is the string Robokassa expects to be hashed for a payment link:
//
//	MerchantLogin:OutSum:InvId:Password1[:Shp_a=1:Shp_b=2...]
//
// Custom parameters are always folded in, sorted by their "key=value" form.
func LinkSignatureInput(merchantLogin, outSum, invID, password1 string, params model.CustomParams) string {
	return joinSignature([]string{merchantLogin, outSum, invID, password1}, params)
}

// ResultSignatureInput is the string hashed by Robokassa for the result callback:
//
//	OutSum:InvId:Password2[:Shp_a=1:Shp_b=2...]
func ResultSignatureInput(outSum, invID, password2 string, params model.CustomParams) string {
	return joinSignature([]string{outSum, invID, password2}, params)
}

func joinSignature(head []string, params model.CustomParams) string {
	parts := append(head, params.Sorted()...)
	return strings.Join(parts, ":")
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SignatureError reports a result notification whose signature did not match.
// Both values are kept for forensic logging.
type SignatureError struct {
	InvoiceID string
	Expected  string
	Got       string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("invoice %s: expected signature %s, got %s", e.InvoiceID, e.Expected, e.Got)
}

func (e *SignatureError) Unwrap() error { return domain.ErrSignatureMismatch }
