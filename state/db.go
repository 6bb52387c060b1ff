package state

import (
	"sync"

	"github.com/calehh/ballot-app/ballot"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
)

type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	ldb    dbm.DB
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	ldb, err := dbm.NewDB("ballot", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	return newStateDB(ldb, dir, logger)
}

// NewMemStateDB keeps the whole tree in memory.
func NewMemStateDB(logger cmtlog.Logger) (db *StateDB, err error) {
	return newStateDB(dbm.NewMemDB(), "", logger)
}

func newStateDB(ldb dbm.DB, dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "ballotdb")
	tdb := iavl.NewMutableTree(ldb, 128, true, Cometbft2CosmosLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, logger)
	err = st.load()
	if err != nil {
		logger.Error("from ballotdb load fail", "err", err)
		return nil, err
	}
	db = &StateDB{
		dir:    dir,
		logger: logger,
		ldb:    ldb,
		db:     tdb,
		state:  st,
	}
	return
}

// Close releases the tree and then the backing store. The tree does not
// close the store itself, so the file lock is held until ldb is closed.
func (db *StateDB) Close() (err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	err = db.db.Close()
	if cerr := db.ldb.Close(); err == nil {
		err = cerr
	}
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header().Clone()
	return
}

func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

func (db *StateDB) ballot() (*ballot.Ballot, error) {
	if db.state.ballot == nil {
		return nil, ErrBallotNotInitialized
	}
	return db.state.ballot, nil
}

func (db *StateDB) GetVoter(addr common.Address) (voter ballot.Voter, nonce uint64, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	b, err := db.ballot()
	if err != nil {
		return
	}
	voter = b.Voter(addr)
	nonce, err = db.state.peekNonce(addr)
	height = db.state.header.Height
	return
}

func (db *StateDB) GetProposals() (proposals []ballot.Proposal, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	b, err := db.ballot()
	if err != nil {
		return
	}
	proposals = b.Proposals()
	height = db.state.header.Height
	return
}

func (db *StateDB) GetProposal(idx uint64) (proposal ballot.Proposal, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	b, err := db.ballot()
	if err != nil {
		return
	}
	proposal, err = b.Proposal(idx)
	height = db.state.header.Height
	return
}

// GetWinner returns the winning proposal together with its index, read
// from one committed state.
func (db *StateDB) GetWinner() (idx uint64, proposal ballot.Proposal, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	b, err := db.ballot()
	if err != nil {
		return
	}
	idx = b.WinningProposal()
	proposal, err = b.Proposal(idx)
	height = db.state.header.Height
	return
}

func (db *StateDB) GetChairperson() (chairperson common.Address, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	b, err := db.ballot()
	if err != nil {
		return
	}
	chairperson = b.Chairperson()
	height = db.state.header.Height
	return
}
