package service

import "context"

type testTxRepos struct {
	documents DocumentRepositoryInterface
	chunks    ChunkRepositoryInterface
	jobs      IndexingJobRepositoryInterface
}

func (t *testTxRepos) Documents() DocumentRepositoryInterface {
	return t.documents
}

func (t *testTxRepos) Chunks() ChunkRepositoryInterface {
	return t.chunks
}

func (t *testTxRepos) IndexingJobs() IndexingJobRepositoryInterface {
	return t.jobs
}

type testTxRunner struct {
	repos  TxRepositories
	called bool
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	return fn(t.repos)
}
