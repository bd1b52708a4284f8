package awsKmsTransportSigner

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmsTypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mypos-ipc/ipc-go/pkg/transportSigner"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// KMSAPI is the subset of the KMS client used for signing
type KMSAPI interface {
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

// AWSKMSTransportSigner signs with an RSA key that never leaves AWS KMS.
// KMS applies RSASSA-PKCS1-v1_5 with SHA-256, matching the local signer.
type AWSKMSTransportSigner struct {
	logger    *zap.Logger
	kmsClient KMSAPI
	keyId     string
	keyIndex  int
}

var _ transportSigner.ITransportSigner = (*AWSKMSTransportSigner)(nil)

func NewAWSKMSTransportSigner(awsCfg aws.Config, keyId string, keyIndex int, logger *zap.Logger) *AWSKMSTransportSigner {
	return NewAWSKMSTransportSignerWithClient(kms.NewFromConfig(awsCfg), keyId, keyIndex, logger)
}

func NewAWSKMSTransportSignerWithClient(client KMSAPI, keyId string, keyIndex int, logger *zap.Logger) *AWSKMSTransportSigner {
	return &AWSKMSTransportSigner{
		logger:    logger,
		kmsClient: client,
		keyId:     keyId,
		keyIndex:  keyIndex,
	}
}

func (a *AWSKMSTransportSigner) SignMessage(ctx context.Context, data []byte) ([]byte, error) {
	out, err := a.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(a.keyId),
		Message:          data,
		MessageType:      kmsTypes.MessageTypeRaw,
		SigningAlgorithm: kmsTypes.SigningAlgorithmSpecRsassaPkcs1V15Sha256,
	})
	if err != nil {
		return nil, &types.SignatureError{Op: "sign", Cause: errors.Wrapf(err, "failed to sign with KMS key %s", a.keyId)}
	}
	if len(out.Signature) == 0 {
		return nil, &types.SignatureError{Op: "sign", Cause: fmt.Errorf("KMS returned an empty signature for key %s", a.keyId)}
	}

	a.logger.Sugar().Debugw("Signed message with KMS",
		"key_index", a.keyIndex,
		"message_length", len(data),
	)
	return out.Signature, nil
}

func (a *AWSKMSTransportSigner) KeyIndex() int {
	return a.keyIndex
}

// PublicKey fetches the RSA public key of the KMS key, for pre-flight checks
func (a *AWSKMSTransportSigner) PublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	out, err := a.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(a.keyId),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for KMS key %s", a.keyId)
	}

	parsed, err := x509.ParsePKIXPublicKey(out.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for KMS key %s", a.keyId)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("KMS key %s is not an RSA key: %T", a.keyId, parsed)
	}
	return pub, nil
}
