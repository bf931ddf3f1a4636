package seedsheets

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	resultTierDivisor  = 8
)

// maxParticipants bounds the roster so name synthesis stays
// collision-free across its middle-initial cycles.
const maxParticipants = 15000

// Constants for result generation ranges. Each test is marked on a
// 0.0 - 2.0 scale before composite scoring.
const (
	solidResultMin    = 0.8
	solidResultRange  = 0.6
	strongResultMin   = 1.4
	strongResultRange = 0.4
	weakResultMin     = 0.1
	weakResultRange   = 0.7
	topResultMin      = 1.8
	topResultRange    = 0.2
	absentResultMin   = 0.0
	absentResultRange = 0.2
	upperMidMin       = 1.2
	upperMidRange     = 0.4
	lowerMidMin       = 0.5
	lowerMidRange     = 0.4
	fullRangeMin      = 0.0
	fullRangeWidth    = 2.0
)

// Constants for result tier cases.
const (
	caseSolidResult    = 0
	caseStrongResult   = 1
	caseWeakResult     = 2
	caseTopResult      = 3
	caseAbsentResult   = 4
	caseUpperMidResult = 5
	caseLowerMidResult = 6
	caseFullRange      = 7
)

// Name pools for roster synthesis.
var (
	firstNames = []string{
		"Amara", "Bayo", "Chidi", "Dara", "Efe", "Femi", "Gbenga", "Halima",
		"Ibrahim", "Jide", "Kemi", "Lara", "Musa", "Ngozi", "Obi", "Pelumi",
		"Ronke", "Sade", "Tunde", "Uche", "Wale", "Yemi", "Zainab", "Ada",
	}
	lastNames = []string{
		"Okafor", "Adeyemi", "Balogun", "Chukwu", "Danjuma", "Eze", "Falana",
		"Garba", "Hassan", "Ibe", "John", "Kalu", "Lawal", "Mohammed", "Nwosu",
		"Obi", "Peters", "Quadri", "Sanni", "Taiwo", "Umar", "Williams",
		"Yusuf", "Zubair",
	}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomInt returns a random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateRoster creates the shared participant roster concurrently.
func generateRoster(ctx context.Context, config *Config, stats *Stats) ([]Participant, error) {
	logger.Get().Info(ctx, "generating participant roster", logger.Int("participants", config.Participants))

	roster := make([]Participant, config.Participants)

	type genResult struct {
		index       int
		participant Participant
		err         error
	}

	resultChan := make(chan genResult, config.Participants)

	// Use worker pool for roster generation
	workerCount := minInt(config.Workers, config.Participants)
	if workerCount < 1 {
		workerCount = 1
	}
	perWorker := config.Participants / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.Participants // Last worker gets the remainder
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- genResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- genResult{index: i, participant: generateSingleParticipant(i, config.Overlap)}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.Participants; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during roster generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate participant %d: %w", result.index, result.err)
			}
			roster[result.index] = result.participant
		}
	}

	stats.ParticipantsGenerated = len(roster)
	logger.Get().Info(ctx, "roster generated", logger.Int("count", len(roster)))

	return roster, nil
}

// generateSingleParticipant creates one roster member: identity, one
// result per test position, and the subset of sheets carrying it.
func generateSingleParticipant(index int, overlap float64) Participant {
	name := nameFor(index)
	p := Participant{
		FullName: name,
		Email:    emailFor(name, index),
	}

	for pos := 0; pos < model.PositionCount; pos++ {
		p.Results[pos] = roundResult(generateVariedResult())
		p.Present[pos] = getRandomFloat() < overlap
	}

	// Every participant shows up on at least one sheet
	seen := false
	for _, present := range p.Present {
		if present {
			seen = true
			break
		}
	}
	if !seen {
		p.Present[randomInt(model.PositionCount)] = true
	}

	return p
}

// generateVariedResult creates a per-test result with varied distribution.
func generateVariedResult() float64 {
	randNum, _ := rand.Int(rand.Reader, big.NewInt(resultTierDivisor))
	switch randNum.Int64() {
	case caseSolidResult:
		// Solid performers (0.8 - 1.4), most common
		return solidResultMin + getRandomFloat()*solidResultRange
	case caseStrongResult:
		// Strong performers (1.4 - 1.8)
		return strongResultMin + getRandomFloat()*strongResultRange
	case caseWeakResult:
		// Weak performers (0.1 - 0.8)
		return weakResultMin + getRandomFloat()*weakResultRange
	case caseTopResult:
		// Top performers (1.8 - 2.0), rare
		return topResultMin + getRandomFloat()*topResultRange
	case caseAbsentResult:
		// Barely-present performers (0.0 - 0.2), rare
		return absentResultMin + getRandomFloat()*absentResultRange
	case caseUpperMidResult:
		// Upper-mid performers (1.2 - 1.6)
		return upperMidMin + getRandomFloat()*upperMidRange
	case caseLowerMidResult:
		// Lower-mid performers (0.5 - 0.9)
		return lowerMidMin + getRandomFloat()*lowerMidRange
	case caseFullRange:
		// Random across the full range (0.0 - 2.0)
		return fullRangeMin + getRandomFloat()*fullRangeWidth
	default:
		return fullRangeMin + getRandomFloat()*fullRangeWidth
	}
}

// nameFor synthesizes a unique full name for a roster index. Once the
// first-by-last pool is exhausted, a middle initial starts a new cycle.
func nameFor(index int) string {
	first := firstNames[index%len(firstNames)]
	last := lastNames[(index/len(firstNames))%len(lastNames)]

	cycle := index / (len(firstNames) * len(lastNames))
	if cycle == 0 {
		return first + " " + last
	}
	return fmt.Sprintf("%s %c. %s", first, 'A'+rune((cycle-1)%26), last)
}

// emailFor derives a unique address from a full name and roster index.
func emailFor(name string, index int) string {
	parts := strings.Fields(strings.ToLower(name))
	for i, part := range parts {
		parts[i] = strings.TrimSuffix(part, ".")
	}
	return fmt.Sprintf("%s%d@example.com", strings.Join(parts, "."), index+1)
}

// roundResult clips a generated result to two decimals, the precision
// testing platforms export marks at.
func roundResult(v float64) float64 {
	return math.Round(v*100) / 100
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
