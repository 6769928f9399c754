package repoargs

type RepositoryName string

const (
	OrderRepoName    RepositoryName = "order"
	PaymentRepoName  RepositoryName = "payment"
	CheckoutRepoName RepositoryName = "checkout"
	SagaRepoName     RepositoryName = "saga"
)
