// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package neterrors turns connection failures into troubleshooting messages.
package neterrors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/aws/smithy-go"
	"github.com/pterm/pterm"

	"athenacli/cli/internal/logging"
)

// Category classifies a connection failure.
type Category string

const (
	Timeout           Category = "timeout"
	DNS               Category = "dns"
	ConnectionRefused Category = "connection_refused"
	TLS               Category = "tls"
	Throttled         Category = "throttled"
	AccessDenied      Category = "access_denied"
	Generic           Category = "generic"
)

var throttlingCodes = map[string]bool{
	"ThrottlingException":      true,
	"Throttling":               true,
	"TooManyRequestsException": true,
	"RequestLimitExceeded":     true,
	"SlowDown":                 true,
}

var accessDeniedCodes = map[string]bool{
	"AccessDenied":                true,
	"AccessDeniedException":       true,
	"UnauthorizedOperation":       true,
	"UnrecognizedClientException": true,
	"InvalidClientTokenId":        true,
	"ExpiredToken":                true,
	"ExpiredTokenException":       true,
	"SignatureDoesNotMatch":       true,
}

// Classify reports which troubleshooting advice applies to err.
func Classify(err error) Category {
	if err == nil {
		return Generic
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch code := apiErr.ErrorCode(); {
		case throttlingCodes[code]:
			return Throttled
		case accessDeniedCodes[code]:
			return AccessDenied
		}
	}

	switch {
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return ConnectionRefused
	case isTimeoutError(err):
		return Timeout
	case isTLSError(err):
		return TLS
	}
	return Generic
}

// Format prints troubleshooting advice for err to w and returns err wrapped
// with the action that failed, e.g. "connecting to Redshift".
func Format(w io.Writer, err error, action string) error {
	if err == nil {
		return nil
	}
	Render(w, err, action)
	return fmt.Errorf("%s: %w", action, err)
}

// Render prints the advice for err without wrapping it.
func Render(w io.Writer, err error, action string) {
	cat := Classify(err)
	h := hints[cat]

	pterm.Fprintln(w, pterm.Sprintf("%s while %s", h.title, action))
	pterm.Fprintln(w)
	pterm.Fprintln(w, h.intro)
	for _, item := range h.items {
		pterm.Fprintln(w, "  • "+item)
	}
	pterm.Fprintln(w)

	if cat == Generic {
		details := logging.Mask(err.Error())
		if len(details) > 200 {
			details = details[:200] + "..."
		}
		pterm.Fprintln(w, "Technical details: "+details)
		pterm.Fprintln(w)
	}
}

type hint struct {
	title string
	intro string
	items []string
}

var hints = map[Category]hint{
	Timeout: {
		title: "Connection timeout",
		intro: "The server took too long to respond. This could mean:",
		items: []string{
			"The cluster is paused or still resuming",
			"A security group or firewall is dropping the connection",
			"The connect_timeout setting is too low",
		},
	},
	DNS: {
		title: "Cannot resolve host",
		intro: "The host name could not be looked up. Please check:",
		items: []string{
			"The host or DSN is spelled correctly",
			"The endpoint is reachable from this network (VPN, private subnet)",
		},
	},
	ConnectionRefused: {
		title: "Connection refused",
		intro: "Nothing is accepting connections at that address. Check:",
		items: []string{
			"The port (Redshift listens on 5439 by default)",
			"The cluster is publicly accessible or you are inside its VPC",
		},
	},
	TLS: {
		title: "Secure connection failed",
		intro: "A TLS connection could not be established. Try:",
		items: []string{
			"Setting sslmode to require instead of verify-full",
			"Checking network proxy settings",
			"Checking your system date and time",
		},
	},
	Throttled: {
		title: "Request throttled by AWS",
		intro: "AWS is rate limiting this account. Please:",
		items: []string{
			"Wait a few seconds and try again",
			"Check for other clients sharing the same credentials",
		},
	},
	AccessDenied: {
		title: "Access denied by AWS",
		intro: "The credentials were rejected or lack permission. Check:",
		items: []string{
			"The selected AWS profile and region",
			"That the access key is active and not expired",
			"The IAM policy allows the Athena or Redshift actions being used",
		},
	},
	Generic: {
		title: "Cannot connect",
		intro: "Please check:",
		items: []string{
			"Your network connection",
			"The connection settings shown by athenacli dbinfo",
		},
	},
}

func isTimeoutError(err error) bool {
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such host")
}

func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isTLSError(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "tls") ||
		strings.Contains(lower, "x509") ||
		strings.Contains(lower, "certificate") ||
		strings.Contains(lower, "handshake")
}
