package verify

// RiskLevel buckets the recovery-risk score
type RiskLevel string

const (
	RiskNone     RiskLevel = "None"
	RiskVeryLow  RiskLevel = "VeryLow"
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// RecoverySimulation synthesizes what the common recovery tools would
// find: PhotoRec-style signature-scan results,
// TestDisk-style MBR/GPT/filesystem-signature detection, and a
// filesystem-metadata residue check, combined into a 0-100 weighted risk
// score.
type RecoverySimulation struct {
	// FileSignatureHits is the PhotoRec-style count of carvable file
	// headers found in the sampled data.
	FileSignatureHits int
	// PartitionSignatures is the TestDisk-style list of partition and
	// filesystem magics found.
	PartitionSignatures []string
	// FilesystemResidue reports metadata structure remnants (structured
	// low-entropy chunks consistent with directory/inode tables).
	FilesystemResidue bool

	RiskScore int
	Risk      RiskLevel
}

// simulateRecovery folds the analysis evidence into the recovery-risk
// model. SMART evidence (reallocated/pending sectors) raises the score at
// Level4, matching the SMART-aware risk model.
func simulateRecovery(a *PostWipeAnalysis) *RecoverySimulation {
	sim := &RecoverySimulation{}

	for _, hit := range a.SignatureHits {
		if partitionSignatureNames[hit.Name] {
			sim.PartitionSignatures = append(sim.PartitionSignatures, hit.Name)
		} else {
			sim.FileSignatureHits++
		}
	}
	if a.ChunksAnalyzed > 0 && a.StructuredChunks*4 >= a.ChunksAnalyzed {
		sim.FilesystemResidue = true
	}

	score := 0
	score += capAt(sim.FileSignatureHits*10, 40)
	score += capAt(len(sim.PartitionSignatures)*15, 30)
	if sim.FilesystemResidue {
		score += 15
	}
	if a.MinEntropy > 0 && a.MinEntropy < 4.0 {
		score += 10
	}
	if len(a.SuspectSectors) > 0 {
		score += 5
	}
	if a.Hidden != nil {
		in := a.Hidden.Input
		if !a.Hidden.Verified {
			score += 10
		}
		if in.Health.ReallocatedSectorCount > 0 || in.Health.PendingSectorCount > 0 {
			score += 5
		}
	}
	if score > 100 {
		score = 100
	}

	sim.RiskScore = score
	sim.Risk = bucketRisk(score)
	return sim
}

func bucketRisk(score int) RiskLevel {
	switch {
	case score == 0:
		return RiskNone
	case score <= 10:
		return RiskVeryLow
	case score <= 25:
		return RiskLow
	case score <= 50:
		return RiskMedium
	case score <= 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func capAt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
