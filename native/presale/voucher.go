package presale

import (
	"strconv"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	repoCrypto "presalechain/crypto"
)

// ClaimVoucher is the authority-signed triple authorising a one-time
// commission withdrawal. The canonical message is the byte-exact
// concatenation of the adviser code, the textual encoding of the claimer's
// address and the decimal deadline; vouchers issued off-line by the authority
// must reproduce exactly this encoding.
type ClaimVoucher struct {
	Code     string
	Claimer  [20]byte
	Deadline int64
}

// CanonicalMessage renders the byte sequence signed by the presale authority.
func (v ClaimVoucher) CanonicalMessage() string {
	builder := strings.Builder{}
	builder.WriteString(v.Code)
	builder.WriteString(repoCrypto.NewAddress(repoCrypto.SalePrefix, v.Claimer[:]).String())
	builder.WriteString(strconv.FormatInt(v.Deadline, 10))
	return builder.String()
}

// Hash computes the keccak256 digest of the canonical message.
func (v ClaimVoucher) Hash() []byte {
	return ethcrypto.Keccak256([]byte(v.CanonicalMessage()))
}

// SignVoucher produces the 65-byte [R || S || V] signature over the voucher
// digest. Exposed for the authority's issuing tooling and for tests.
func SignVoucher(key *repoCrypto.PrivateKey, v ClaimVoucher) ([]byte, error) {
	if key == nil {
		return nil, ErrSignatureVerification
	}
	return ethcrypto.Sign(v.Hash(), key.PrivateKey)
}

// Verify checks that the supplied signature over the reconstructed message
// recovers to the configured presale authority.
func (v ClaimVoucher) Verify(signature []byte, authority [20]byte) error {
	if len(signature) != 65 {
		return ErrSignatureVerification
	}
	pubKey, err := ethcrypto.SigToPub(v.Hash(), signature)
	if err != nil {
		return ErrSignatureVerification
	}
	recovered := ethcrypto.PubkeyToAddress(*pubKey)
	if recovered != ethcommon.BytesToAddress(authority[:]) {
		return ErrSignatureVerification
	}
	return nil
}
