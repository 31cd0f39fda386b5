// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

// genotypeCombinations returns the number of distinct unordered genotype
// combinations of ploidy chosen from nAlleles alleles (VCF Number=G),
// i.e. C(nAlleles+ploidy-1, ploidy). For ploidy 2 this is the familiar
// n*(n+1)/2 diploid genotype count.
func genotypeCombinations(nAlleles, ploidy int) int {
	if nAlleles <= 0 || ploidy <= 0 {
		return 0
	}
	return int(binomial(int64(nAlleles+ploidy-1), int64(ploidy)))
}

func binomial(n, k int64) int64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := int64(1)
	for i := int64(0); i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return result
}
