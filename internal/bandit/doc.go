// Package bandit implements the contextual multi-armed bandit behind
// decisiond's option selection.
//
// Four selection algorithms are available: epsilon-greedy, UCB1,
// Thompson sampling (the default), and EXP3 for adversarial settings.
// Every arm additionally carries a contextual weight vector updated by
// online linear regression on reward reports, so selection can
// condition on the situational context as well as historical averages.
//
// All state is process-local and guarded by a RWMutex: selection is a
// read, reward reporting is the only write. Cross-process deployments
// must externalize arm statistics; see DESIGN.md.
package bandit
