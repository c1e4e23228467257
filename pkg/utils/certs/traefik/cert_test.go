//nolint:lll // readablity
package traefik

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCertData(t *testing.T) {
	tests := []struct {
		name     string
		jsonData string
		domain   string
		cert     string
		key      string
		wantErr  error
	}{
		{
			name:     "Success",
			jsonData: `{"dummy":{"Certificates":[{"domain":{"main":"example.com"}, "certificate": "cert1", "key": "key1"}]}}`,
			domain:   "example.com",
			cert:     "cert1",
			key:      "key1",
		},
		{
			name:     "Wildcard domain",
			jsonData: `{"myresolver":{"Certificates":[{"domain":{"main":"*.example.com"}, "certificate": "cert1", "key": "key1"}]}}`,
			domain:   "*.example.com",
			cert:     "cert1",
			key:      "key1",
		},
		{
			name:     "Domain not found",
			jsonData: `{"dummy":{"Certificates":[{"domain":{"main":"example.com"}, "certificate": "cert1", "key": "key1"}]}}`,
			domain:   "notfound.com",
			wantErr:  ErrDomainNotFound,
		},
		{
			name:     "Empty json",
			jsonData: `{}`,
			domain:   "notfound.com",
			wantErr:  ErrDomainNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cert, key, err := getCertData(tt.jsonData, tt.domain)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cert, cert)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestGetCertFromTraefik(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: "racepace.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDer, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	certPem := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPem := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDer})

	acme := fmt.Sprintf(`{"le":{"Certificates":[{"domain":{"main":"racepace.example.com"},"certificate":%q,"key":%q}]}}`,
		base64.StdEncoding.EncodeToString(certPem), base64.StdEncoding.EncodeToString(keyPem))
	file := filepath.Join(t.TempDir(), "acme.json")
	require.NoError(t, os.WriteFile(file, []byte(acme), 0o600))

	cert, err := GetCertFromTraefik(file, "racepace.example.com")
	require.NoError(t, err)
	assert.Len(t, cert.Certificate, 1)

	_, err = GetCertFromTraefik(file, "other.example.com")
	assert.ErrorIs(t, err, ErrDomainNotFound)
}

func TestGetCertificateInvalidBase64(t *testing.T) {
	_, err := GetCertificate(`{"x":{"Certificates":[{"domain":{"main":"a.b"},"certificate":"%%%","key":"k"}]}}`, "a.b")
	assert.Error(t, err)
}
