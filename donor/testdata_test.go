package donor_test

import "math/big"

var testChainID = big.NewInt(1337)
