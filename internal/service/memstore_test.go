package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"nftmint_rewards/internal/model"
	"nftmint_rewards/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore mirrors the Postgres repository's semantics in memory so flows
// spanning several services can be exercised without a database.
type memStore struct {
	mu        sync.Mutex
	users     map[string]*model.User
	referrals map[string]*model.Referral
	quests    []*model.Quest
	progress  map[string]*model.QuestProgress
	xp        map[string]*model.XPRecord
	mints     map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]*model.User),
		referrals: make(map[string]*model.Referral),
		progress:  make(map[string]*model.QuestProgress),
		xp:        make(map[string]*model.XPRecord),
		mints:     make(map[string]string),
	}
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

func copyReferral(r *model.Referral) *model.Referral {
	c := *r
	return &c
}

func copyProgress(p *model.QuestProgress) *model.QuestProgress {
	c := *p
	return &c
}

func (m *memStore) codeTaken(code string) bool {
	for _, u := range m.users {
		if u.ReferralCode == code {
			return true
		}
	}
	return false
}

func (m *memStore) CreateUser(_ context.Context, user *model.User) (*model.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.users[user.WalletAddress]; ok {
		return copyUser(existing), false, nil
	}
	if m.codeTaken(user.ReferralCode) {
		return nil, false, repository.ErrAlreadyExists
	}

	stored := copyUser(user)
	m.users[user.WalletAddress] = stored
	return copyUser(stored), true, nil
}

func (m *memStore) GetUserByWallet(_ context.Context, wallet string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[wallet]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (m *memStore) GetUserByReferralCode(_ context.Context, code string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.ReferralCode == code {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) CreateReferral(_ context.Context, referral *model.Referral, referred *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[referred.WalletAddress]
	if !ok {
		if m.codeTaken(referred.ReferralCode) {
			return repository.ErrAlreadyExists
		}
		user = &model.User{
			WalletAddress: referred.WalletAddress,
			ReferralCode:  referred.ReferralCode,
			TotalEarned:   decimal.Zero,
			CreatedAt:     referral.CreatedAt,
			UpdatedAt:     referral.CreatedAt,
		}
		m.users[referred.WalletAddress] = user
	}

	if user.ReferredBy != nil {
		return repository.ErrReferralExists
	}
	if _, exists := m.referrals[referral.ReferredWallet]; exists {
		return repository.ErrReferralExists
	}

	m.referrals[referral.ReferredWallet] = copyReferral(referral)
	referrer := referral.ReferrerWallet
	user.ReferredBy = &referrer

	return nil
}

func (m *memStore) GetReferralByReferred(_ context.Context, referredWallet string) (*model.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.referrals[referredWallet]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyReferral(r), nil
}

func (m *memStore) ListReferralsByReferrer(_ context.Context, referrerWallet string) ([]*model.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var list []*model.Referral
	for _, r := range m.referrals {
		if r.ReferrerWallet == referrerWallet {
			list = append(list, copyReferral(r))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

	return list, nil
}

func (m *memStore) CompleteReferral(_ context.Context, referredWallet string, now time.Time) (*model.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.referrals[referredWallet]
	if !ok {
		return nil, repository.ErrNotFound
	}

	status, err := r.Status.Transition(model.ReferralCompleted)
	if err != nil {
		return nil, err
	}
	r.Status = status
	r.CompletedAt = &now

	return copyReferral(r), nil
}

func (m *memStore) RewardReferral(_ context.Context, referredWallet string, amount decimal.Decimal, txRef *string, now time.Time) (*model.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.referrals[referredWallet]
	if !ok {
		return nil, repository.ErrNotFound
	}

	status, err := r.Status.Transition(model.ReferralRewarded)
	if err != nil {
		return nil, err
	}
	r.Status = status
	r.RewardAmount = amount
	r.TxRef = txRef
	r.RewardedAt = &now

	if referrer, ok := m.users[r.ReferrerWallet]; ok {
		referrer.TotalReferrals++
		referrer.TotalEarned = referrer.TotalEarned.Add(amount)
		referrer.UpdatedAt = now
	}

	return copyReferral(r), nil
}

func (m *memStore) RecordMint(_ context.Context, wallet, txSignature string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[wallet]
	if !ok {
		return repository.ErrNotFound
	}
	if _, used := m.mints[txSignature]; used {
		return repository.ErrSignatureUsed
	}
	m.mints[txSignature] = wallet
	u.NFTsMinted++
	u.UpdatedAt = now
	return nil
}

func (m *memStore) ResetUser(_ context.Context, wallet string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[wallet]
	if !ok {
		return repository.ErrNotFound
	}
	u.TotalReferrals = 0
	u.TotalEarned = decimal.Zero
	u.NFTsMinted = 0
	u.QuestsCompleted = 0
	u.UpdatedAt = now

	for id, p := range m.progress {
		if p.WalletAddress == wallet {
			delete(m.progress, id)
		}
	}
	delete(m.xp, wallet)

	return nil
}

func (m *memStore) ListUsers(_ context.Context, orderBy string, limit int) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := func(u *model.User) decimal.Decimal {
		switch orderBy {
		case "total_earned":
			return u.TotalEarned
		case "quests_completed":
			return decimal.NewFromInt(int64(u.QuestsCompleted))
		case "nfts_minted":
			return decimal.NewFromInt(int64(u.NFTsMinted))
		}
		return decimal.NewFromInt(int64(u.TotalReferrals))
	}

	list := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		list = append(list, copyUser(u))
	}
	sort.Slice(list, func(i, j int) bool {
		if c := key(list[i]).Cmp(key(list[j])); c != 0 {
			return c > 0
		}
		return list[i].WalletAddress < list[j].WalletAddress
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

func (m *memStore) ListQuests(_ context.Context, questType model.QuestType) ([]*model.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var list []*model.Quest
	for _, q := range m.quests {
		if !q.Active || (questType != "" && q.Type != questType) {
			continue
		}
		c := *q
		list = append(list, &c)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

	return list, nil
}

func (m *memStore) GetQuestByID(_ context.Context, id uuid.UUID) (*model.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, q := range m.quests {
		if q.ID == id {
			c := *q
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) CreateQuests(_ context.Context, quests []*model.Quest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, q := range quests {
		c := *q
		m.quests = append(m.quests, &c)
	}
	return nil
}

func (m *memStore) FindDuplicateQuests(_ context.Context) ([]model.DuplicateQuests, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byTitle := make(map[string][]*model.Quest)
	var titles []string
	for _, q := range m.quests {
		if _, ok := byTitle[q.Title]; !ok {
			titles = append(titles, q.Title)
		}
		byTitle[q.Title] = append(byTitle[q.Title], q)
	}

	var dups []model.DuplicateQuests
	for _, title := range titles {
		group := byTitle[title]
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.Before(group[j].CreatedAt)
			}
			return group[i].ID.String() < group[j].ID.String()
		})
		d := model.DuplicateQuests{Title: title}
		for _, q := range group {
			d.IDs = append(d.IDs, q.ID)
		}
		dups = append(dups, d)
	}

	return dups, nil
}

func (m *memStore) DeleteQuests(_ context.Context, ids []uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := m.quests[:0]
	deleted := 0
	for _, q := range m.quests {
		if _, ok := drop[q.ID]; ok {
			deleted++
			for pid, p := range m.progress {
				if p.QuestID == q.ID {
					delete(m.progress, pid)
				}
			}
			continue
		}
		kept = append(kept, q)
	}
	m.quests = kept

	return deleted, nil
}

func (m *memStore) QuestTitles(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{})
	var titles []string
	for _, q := range m.quests {
		if _, ok := seen[q.Title]; !ok {
			seen[q.Title] = struct{}{}
			titles = append(titles, q.Title)
		}
	}
	return titles, nil
}

func (m *memStore) ListQuestProgress(_ context.Context, wallet string) ([]*model.QuestProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var list []*model.QuestProgress
	for _, p := range m.progress {
		if p.WalletAddress == wallet {
			list = append(list, copyProgress(p))
		}
	}
	return list, nil
}

func (m *memStore) GetQuestProgress(_ context.Context, id string) (*model.QuestProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.progress[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyProgress(p), nil
}

func (m *memStore) CreateQuestProgress(_ context.Context, progress []*model.QuestProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range progress {
		if _, ok := m.progress[p.ID]; !ok {
			m.progress[p.ID] = copyProgress(p)
		}
	}
	return nil
}

func (m *memStore) UpdateQuestProgress(_ context.Context, id string, fn func(p *model.QuestProgress) error) (*model.QuestProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.progress[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	working := copyProgress(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	m.progress[id] = working

	return copyProgress(working), nil
}

func (m *memStore) ClaimQuestProgress(_ context.Context, id string, now time.Time) (*model.QuestProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.progress[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if stored.Status == model.QuestClaimed {
		return nil, repository.ErrAlreadyClaimed
	}

	working := copyProgress(stored)
	if err := working.Claim(now); err != nil {
		return nil, err
	}
	m.progress[id] = working

	if u, ok := m.users[working.WalletAddress]; ok {
		u.QuestsCompleted++
		u.UpdatedAt = now
	}

	return copyProgress(working), nil
}

func (m *memStore) GetXPRecord(_ context.Context, wallet string) (*model.XPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.xp[wallet]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (m *memStore) AddXP(_ context.Context, wallet string, amount int, now time.Time) (*model.XPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.xp[wallet]
	if !ok {
		r = &model.XPRecord{WalletAddress: wallet}
		m.xp[wallet] = r
	}
	r.TotalXP += amount
	r.UpdatedAt = now
	r.Derive()

	c := *r
	return &c, nil
}

func (m *memStore) GetXPRank(_ context.Context, _ string, totalXP int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rank := 1
	for _, r := range m.xp {
		if r.TotalXP > totalXP {
			rank++
		}
	}
	return rank, nil
}

func (m *memStore) ListXPRecords(_ context.Context, limit int) ([]*model.XPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]*model.XPRecord, 0, len(m.xp))
	for _, r := range m.xp {
		c := *r
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].TotalXP != list[j].TotalXP {
			return list[i].TotalXP > list[j].TotalXP
		}
		return list[i].WalletAddress < list[j].WalletAddress
	})
	for i, r := range list {
		r.Rank = i + 1
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// stack wires every service against one memStore the way cmd/app does.
type stack struct {
	store *memStore
	*Service
}

func newStack() *stack {
	store := newMemStore()
	xp := NewXPService(store, nil, XPConfig{})
	quests := NewQuestService(store, xp)
	referrals := NewReferralService(store, quests, nil, nil, DefaultReferralReward)
	users := NewUserService(store, referrals, quests, nil)
	leaderboard := NewLeaderboardService(store)
	game := NewGameService(xp, quests)

	return &stack{
		store:   store,
		Service: NewService(users, referrals, quests, xp, leaderboard, game),
	}
}
