package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/ballot-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// BlockSource is the part of the CometBFT RPC client the indexer polls.
type BlockSource interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error)
}

type ChainIndexer struct {
	logger        cmtlog.Logger
	Height        int64
	db            *gorm.DB
	src           BlockSource
	interval      time.Duration
	eventHandlers map[string]eventHandler
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, src BlockSource, interval time.Duration) (*ChainIndexer, error) {
	logger = logger.With("module", "indexer")
	logger.Info("NewChainIndexer", "dbPath", dbPath)
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Grant{}, &Vote{}, &Delegation{}, &Tally{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		db.Close()
		return nil, err
	}
	if interval <= 0 {
		interval = time.Second
	}

	c := &ChainIndexer{
		logger:   logger,
		Height:   int64(h.Height + 1),
		db:       db,
		src:      src,
		interval: interval,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventGrantRightType: c.handleEventGrantRight,
		types.EventVoteType:       c.handleEventVote,
		types.EventDelegateType:   c.handleEventDelegate,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(db *gorm.DB, event abci.Event, height int64) error

var errDecodeEvent = errors.New("decode event fail")

func (c *ChainIndexer) handleEventGrantRight(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventGrantRight(event)
	if ev == nil {
		return errDecodeEvent
	}
	return db.Create(&Grant{
		Voter:       ev.Voter.Hex(),
		Chairperson: ev.Chairperson.Hex(),
		Height:      uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventVote(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVote(event)
	if ev == nil {
		return errDecodeEvent
	}
	err := db.Create(&Vote{
		Voter:        ev.Voter.Hex(),
		Proposal:     ev.Proposal,
		ProposalName: ev.ProposalName,
		Weight:       ev.Weight,
		Height:       uint64(height),
	}).Error
	if err != nil {
		return err
	}
	return addTally(db, ev.Proposal, ev.ProposalName, ev.Weight)
}

func (c *ChainIndexer) handleEventDelegate(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventDelegate(event)
	if ev == nil {
		return errDecodeEvent
	}
	err := db.Create(&Delegation{
		Voter:    ev.Voter.Hex(),
		To:       ev.To.Hex(),
		Delegate: ev.Delegate.Hex(),
		Weight:   ev.Weight,
		Counted:  ev.Counted,
		Proposal: ev.Proposal,
		Height:   uint64(height),
	}).Error
	if err != nil || !ev.Counted {
		return err
	}
	return addTally(db, ev.Proposal, "", ev.Weight)
}

func addTally(db *gorm.DB, proposal uint64, name string, weight uint64) error {
	var t Tally
	if err := db.Where("proposal = ?", proposal).FirstOrInit(&t).Error; err != nil {
		return err
	}
	t.Proposal = proposal
	if t.Name == "" {
		t.Name = name
	}
	t.VoteCount += weight
	return db.Save(&t).Error
}

// IndexBlock stores the events of every successful tx of one block and moves
// the cursor past it, in a single transaction.
func (c *ChainIndexer) IndexBlock(height int64, results []*abci.ExecTxResult) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		for _, res := range results {
			if res == nil || res.Code != 0 {
				continue
			}
			for _, event := range res.Events {
				h, ok := c.eventHandlers[event.Type]
				if !ok {
					continue
				}
				if err := h(tx, event, height); err != nil {
					c.logger.Error("handle event fail", "type", event.Type, "height", height, "err", err)
					return err
				}
			}
		}
		return tx.Save(&Height{Id: 1, Height: uint64(height)}).Error
	})
}

// Sync indexes every block from the cursor up to the latest committed one.
func (c *ChainIndexer) Sync(ctx context.Context) error {
	st, err := c.src.Status(ctx)
	if err != nil {
		return err
	}
	for st.SyncInfo.LatestBlockHeight >= c.Height {
		if err := ctx.Err(); err != nil {
			return err
		}
		height := c.Height
		c.logger.Debug("indexer syncing", "height", height)
		res, err := c.src.BlockResults(ctx, &height)
		if err != nil {
			return err
		}
		if err := c.IndexBlock(height, res.TxsResults); err != nil {
			return err
		}
		c.Height++
	}
	return nil
}

func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("indexer sync fail", "height", c.Height, "err", err)
			}
		}
	}
}

func (c *ChainIndexer) getVotes(voter string, page int, pageSize int) ([]Vote, uint64, error) {
	var votes []Vote
	q := c.db.Model(&Vote{})
	if voter != "" {
		q = q.Where("voter = ?", voter)
	}
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = q.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *ChainIndexer) getGrants(voter string, page int, pageSize int) ([]Grant, uint64, error) {
	var grants []Grant
	q := c.db.Model(&Grant{})
	if voter != "" {
		q = q.Where("voter = ?", voter)
	}
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&grants).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = q.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return grants, total, nil
}

func (c *ChainIndexer) getDelegations(address string, page int, pageSize int) ([]Delegation, uint64, error) {
	var delegations []Delegation
	q := c.db.Model(&Delegation{})
	if address != "" {
		q = q.Where("voter = ? OR delegate = ?", address, address)
	}
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&delegations).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = q.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return delegations, total, nil
}

func (c *ChainIndexer) getTally() ([]Tally, error) {
	var tally []Tally
	err := c.db.Order("proposal asc").Find(&tally).Error
	if err != nil {
		return nil, err
	}
	return tally, nil
}

func (c *ChainIndexer) indexedHeight() (uint64, error) {
	h := Height{Id: 1}
	err := c.db.First(&h).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	return h.Height, nil
}
