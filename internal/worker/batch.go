package worker

import (
	"bufio"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/questclaim/internal/model"
	"go.uber.org/zap"
)

// Claimer processes one community
type Claimer interface {
	ClaimQuestsForCommunity(ctx context.Context, community model.Community, req model.RunRequest) (*model.CommunityResult, error)
}

// Pauser inserts the jittered delay between communities
type Pauser interface {
	Pause(ctx context.Context) error
}

// BatchProcessor runs the claim engine over a list of communities, one at a time
type BatchProcessor struct {
	claimer Claimer
	pacer   Pauser
	shuffle func(communities []model.Community)
	newID   func() string
	now     func() time.Time
	logger  *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(claimer Claimer, pacer Pauser, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		claimer: claimer,
		pacer:   pacer,
		shuffle: shuffleCommunities,
		newID:   uuid.NewString,
		now:     time.Now,
		logger:  logger,
	}
}

// ProcessCommunities claims quests in every community, in random order, and
// aggregates the report. A fatal error stops the run; the report built so far
// is returned with it.
func (b *BatchProcessor) ProcessCommunities(ctx context.Context, communities []model.Community, req model.RunRequest) (*model.RunReport, error) {
	report := &model.RunReport{
		ID:          b.newID(),
		StartedAt:   b.now(),
		Types:       req.TypeNames(),
		Communities: len(communities),
	}
	report.Append(fmt.Sprintf("Start claim *%s* quests for %d communities:", strings.Join(report.Types, ","), len(communities)))

	order := make([]model.Community, len(communities))
	copy(order, communities)
	b.shuffle(order)

	log := b.logger.With(zap.String("run", report.ID))
	log.Info("run started", zap.Strings("types", report.Types), zap.Int("communities", len(order)))

	for i, community := range order {
		result, err := b.claimer.ClaimQuestsForCommunity(ctx, community, req)
		if result != nil {
			report.Append(result.Lines...)
			claimed, xp := result.Claimed()
			report.Claimed += claimed
			report.EarnedXP += xp
		}
		if err != nil {
			log.Error("run aborted", zap.String("community", community.Subdomain), zap.Error(err))
			return report, fmt.Errorf("community %s: %w", community.Subdomain, err)
		}

		if i < len(order)-1 && b.pacer != nil {
			if err := b.pacer.Pause(ctx); err != nil {
				return report, fmt.Errorf("pause: %w", err)
			}
		}
	}

	log.Info("run finished", zap.Int("claimed", report.Claimed), zap.Int("xp", report.EarnedXP))
	return report, nil
}

func shuffleCommunities(communities []model.Community) {
	rand.Shuffle(len(communities), func(i, j int) {
		communities[i], communities[j] = communities[j], communities[i]
	})
}

// ReadSubdomainsFromFile reads community subdomains from a file (one per line)
func ReadSubdomainsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var subdomains []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			subdomains = append(subdomains, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return subdomains, nil
}
