package security

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestTargetPolicy_DeniedHosts(t *testing.T) {
	p := NewTargetPolicy([]string{" Internal.Example.com ", ""}, true, quietLogger())

	assert.ErrorIs(t, p.Check(context.Background(), "https://internal.example.com/x"), ErrTargetDenied)
	assert.ErrorIs(t, p.Check(context.Background(), "https://api.internal.example.com"), ErrTargetDenied)
	assert.NoError(t, p.Check(context.Background(), "https://notinternal.example.com"))
	assert.NoError(t, p.Check(context.Background(), "http://127.0.0.1:3000"))
}

func TestTargetPolicy_PrivateAddresses(t *testing.T) {
	p := NewTargetPolicy(nil, false, quietLogger())
	p.lookup = func(_ context.Context, host string) ([]net.IPAddr, error) {
		switch host {
		case "intranet.local":
			return []net.IPAddr{{IP: net.ParseIP("10.0.0.7")}}, nil
		case "public.test":
			return []net.IPAddr{{IP: net.ParseIP("93.184.216.34")}}, nil
		}
		return nil, errors.New("no such host")
	}

	for _, u := range []string{
		"http://127.0.0.1/",
		"http://[::1]:8080/",
		"http://169.254.169.254/latest/meta-data",
		"http://192.168.1.1",
		"https://intranet.local/",
		"https://unknown.test/",
	} {
		assert.ErrorIs(t, p.Check(context.Background(), u), ErrTargetDenied, u)
	}
	assert.NoError(t, p.Check(context.Background(), "https://public.test/page"))
	assert.NoError(t, p.Check(context.Background(), "http://93.184.216.34"))
}
