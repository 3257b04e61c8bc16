package payu

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// The gateway's checksum formats. The forward hash covers the five fields
// sent with the payment form plus eleven reserved udf slots; the return
// hash is the same sequence reversed with the transaction status injected.
//
//	forward: key|txnid|amount|productinfo|firstname|email|||||||||||salt
//	return:  salt|status|||||||||||email|firstname|productinfo|amount|txnid|key
//	refund:  key|command|paymentID|salt
const reservedFields = "|||||||||||"

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ForwardHash computes the checksum sent alongside the hosted payment form.
func ForwardHash(key, txnid, amount, productInfo, firstname, email, salt string) string {
	var b strings.Builder
	b.WriteString(key)
	b.WriteString("|")
	b.WriteString(txnid)
	b.WriteString("|")
	b.WriteString(amount)
	b.WriteString("|")
	b.WriteString(productInfo)
	b.WriteString("|")
	b.WriteString(firstname)
	b.WriteString("|")
	b.WriteString(email)
	b.WriteString(reservedFields)
	b.WriteString(salt)
	return sha512Hex(b.String())
}

// ReturnHash computes the checksum the gateway sends on its redirect
// callbacks so the receiver can authenticate the payload.
func ReturnHash(key, txnid, amount, productInfo, firstname, email, status, salt string) string {
	var b strings.Builder
	b.WriteString(salt)
	b.WriteString("|")
	b.WriteString(status)
	b.WriteString(reservedFields)
	b.WriteString(email)
	b.WriteString("|")
	b.WriteString(firstname)
	b.WriteString("|")
	b.WriteString(productInfo)
	b.WriteString("|")
	b.WriteString(amount)
	b.WriteString("|")
	b.WriteString(txnid)
	b.WriteString("|")
	b.WriteString(key)
	return sha512Hex(b.String())
}

func refundHash(key, command, paymentID, salt string) string {
	return sha512Hex(key + "|" + command + "|" + paymentID + "|" + salt)
}

// HashEqual compares two hex checksums in constant time.
func HashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
