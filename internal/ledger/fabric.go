package ledger

import (
	"context"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/hash"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	"github.com/and161185/goods-ledger/internal/errs"
)

type contract interface {
	EvaluateWithContext(ctx context.Context, name string, opts ...client.ProposalOption) ([]byte, error)
	SubmitWithContext(ctx context.Context, name string, opts ...client.ProposalOption) ([]byte, error)
}

// Fabric runs transactions against a chaincode through a Fabric Gateway peer.
type Fabric struct {
	contract contract
}

var _ Ledger = (*Fabric)(nil)

// NewFabric wraps a connected contract, usually gw.GetNetwork(channel).GetContract(chaincode).
func NewFabric(c contract) *Fabric { return &Fabric{contract: c} }

func (f *Fabric) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	res, err := f.contract.EvaluateWithContext(ctx, name, client.WithArguments(args...))
	if err != nil {
		return nil, classify(name, err)
	}
	return res, nil
}

func (f *Fabric) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	res, err := f.contract.SubmitWithContext(ctx, name, client.WithArguments(args...))
	if err != nil {
		return nil, classify(name, err)
	}
	return res, nil
}

// classify maps contract failures onto sentinels. Chaincode messages arrive in the
// gRPC status message or in gateway error details attached by each endorsing peer.
func classify(name string, err error) error {
	st := status.Convert(err)
	text := []string{st.Message()}
	for _, d := range st.Details() {
		if ed, ok := d.(*gateway.ErrorDetail); ok {
			text = append(text, ed.GetMessage())
		}
	}
	msg := strings.ToLower(strings.Join(text, "; "))

	switch {
	case strings.Contains(msg, "already exists"):
		return fmt.Errorf("%s: %s: %w", name, msg, errs.ErrConflict)
	case strings.Contains(msg, "does not exist"):
		return fmt.Errorf("%s: %s: %w", name, msg, errs.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", name, errs.ErrLedger, err)
}

// FabricConfig locates the gateway peer and the client identity.
type FabricConfig struct {
	PeerEndpoint string // host:port of the gateway peer
	GatewayPeer  string // TLS server name override
	TLSCertPath  string // peer TLS CA certificate
	CertPath     string // client signing certificate
	KeyDir       string // keystore directory; its first file is the private key
	MSPID        string
	Channel      string
	Chaincode    string

	EvaluateTimeout     time.Duration
	EndorseTimeout      time.Duration
	SubmitTimeout       time.Duration
	CommitStatusTimeout time.Duration
}

// withDefaults fills zero timeouts with the gateway sample values.
func (c FabricConfig) withDefaults() FabricConfig {
	if c.EvaluateTimeout == 0 {
		c.EvaluateTimeout = 5 * time.Second
	}
	if c.EndorseTimeout == 0 {
		c.EndorseTimeout = 15 * time.Second
	}
	if c.SubmitTimeout == 0 {
		c.SubmitTimeout = 5 * time.Second
	}
	if c.CommitStatusTimeout == 0 {
		c.CommitStatusTimeout = time.Minute
	}
	return c
}

// Dial loads the client identity, opens the gRPC connection and connects the gateway.
// The returned func closes both.
func Dial(cfg FabricConfig) (*Fabric, func() error, error) {
	cfg = cfg.withDefaults()

	id, err := loadIdentity(cfg.MSPID, cfg.CertPath)
	if err != nil {
		return nil, nil, err
	}
	sign, err := loadSign(cfg.KeyDir)
	if err != nil {
		return nil, nil, err
	}
	conn, err := dialPeer(cfg.PeerEndpoint, cfg.TLSCertPath, cfg.GatewayPeer)
	if err != nil {
		return nil, nil, err
	}

	gw, err := client.Connect(id,
		client.WithSign(sign),
		client.WithHash(hash.SHA256),
		client.WithClientConnection(conn),
		client.WithEvaluateTimeout(cfg.EvaluateTimeout),
		client.WithEndorseTimeout(cfg.EndorseTimeout),
		client.WithSubmitTimeout(cfg.SubmitTimeout),
		client.WithCommitStatusTimeout(cfg.CommitStatusTimeout),
	)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("connect gateway: %w", err)
	}

	closer := func() error {
		gwErr := gw.Close()
		if err := conn.Close(); err != nil {
			return err
		}
		return gwErr
	}
	return NewFabric(gw.GetNetwork(cfg.Channel).GetContract(cfg.Chaincode)), closer, nil
}

func loadIdentity(mspID, certPath string) (*identity.X509Identity, error) {
	pem, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	cert, err := identity.CertificateFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}
	id, err := identity.NewX509Identity(mspID, cert)
	if err != nil {
		return nil, fmt.Errorf("build identity: %w", err)
	}
	return id, nil
}

func loadSign(keyDir string) (identity.Sign, error) {
	entries, err := os.ReadDir(keyDir)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	var keyPath string
	for _, e := range entries {
		if !e.IsDir() {
			keyPath = filepath.Join(keyDir, e.Name())
			break
		}
	}
	if keyPath == "" {
		return nil, fmt.Errorf("no private key in %s", keyDir)
	}

	pem, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	key, err := identity.PrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	sign, err := identity.NewPrivateKeySign(key)
	if err != nil {
		return nil, fmt.Errorf("build signer: %w", err)
	}
	return sign, nil
}

func dialPeer(endpoint, tlsCertPath, serverName string) (*grpc.ClientConn, error) {
	pem, err := os.ReadFile(tlsCertPath)
	if err != nil {
		return nil, fmt.Errorf("read tls certificate: %w", err)
	}
	cert, err := identity.CertificateFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parse tls certificate: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(cert)

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(pool, serverName)))
	if err != nil {
		return nil, fmt.Errorf("dial peer %s: %w", endpoint, err)
	}
	return conn, nil
}
