package risk

import (
	"fmt"

	"ledger-service/src/internal/entity"

	"github.com/spf13/viper"
)

// Scorer grades money movements 0-100. It holds only thresholds read at
// construction, so scoring is a pure function of its inputs.
type Scorer struct {
	HighAmount          float64
	SuspiciousAmount    float64
	SuspiciousThreshold int
}

func NewScorer(v *viper.Viper) *Scorer {
	return &Scorer{
		HighAmount:          v.GetFloat64("risk.high_amount"),
		SuspiciousAmount:    v.GetFloat64("risk.suspicious_amount"),
		SuspiciousThreshold: v.GetInt("risk.suspicious_threshold"),
	}
}

type Assessment struct {
	Score      int
	Suspicious bool
	Reason     string
}

type TransactionContext struct {
	Amount            float64
	Type              entity.TransactionType
	RetryCount        int
	VerificationLevel int
	KycCompleted      bool
	WalletSuspended   bool
}

type PayoutContext struct {
	Amount            float64
	Method            entity.PayoutMethod
	Urgent            bool
	VerificationLevel int
	KycCompleted      bool
	WalletAgeDays     int
}

// ScoreTransaction flags transactions that must not be auto-processed.
func (s *Scorer) ScoreTransaction(tc TransactionContext) Assessment {
	score := 0
	reason := ""

	if tc.Amount >= s.SuspiciousAmount {
		score += 50
		reason = fmt.Sprintf("amount %.2f at or above suspicious threshold %.2f", tc.Amount, s.SuspiciousAmount)
	} else if tc.Amount >= s.HighAmount {
		score += 20
	}

	if tc.RetryCount > 0 {
		score += tc.RetryCount * 10
		if reason == "" {
			reason = fmt.Sprintf("transaction retried %d times", tc.RetryCount)
		}
	}

	if !tc.KycCompleted && tc.Type.IsDebit() {
		score += 15
	}
	if tc.VerificationLevel == 0 {
		score += 10
	}
	if tc.WalletSuspended {
		score += 30
		if reason == "" {
			reason = "wallet recently suspended"
		}
	}

	return s.assess(score, reason)
}

// ScorePayout gates automatic payout processing.
func (s *Scorer) ScorePayout(pc PayoutContext) Assessment {
	score := 0
	reason := ""

	if pc.Amount >= s.SuspiciousAmount {
		score += 50
		reason = fmt.Sprintf("payout %.2f at or above suspicious threshold %.2f", pc.Amount, s.SuspiciousAmount)
	} else if pc.Amount >= s.HighAmount {
		score += 20
	}

	if pc.Method.IsHighRisk() {
		score += 30
		if reason == "" {
			reason = fmt.Sprintf("high-risk payout method %s", pc.Method)
		}
	}
	if !pc.KycCompleted {
		score += 25
		if reason == "" {
			reason = "kyc not completed"
		}
	}
	if pc.VerificationLevel == 0 {
		score += 10
	}
	if pc.WalletAgeDays < 30 {
		score += 10
	}
	if pc.Urgent {
		score += 5
	}

	return s.assess(score, reason)
}

func (s *Scorer) assess(score int, reason string) Assessment {
	if score > 100 {
		score = 100
	}
	threshold := s.SuspiciousThreshold
	if threshold <= 0 {
		threshold = 70
	}
	suspicious := score >= threshold
	if suspicious && reason == "" {
		reason = fmt.Sprintf("risk score %d at or above threshold %d", score, threshold)
	}
	if !suspicious {
		reason = ""
	}
	return Assessment{Score: score, Suspicious: suspicious, Reason: reason}
}
