package migration_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plotset-corp/migration-gl-to-gh/internal/githubcli"
	"github.com/plotset-corp/migration-gl-to-gh/internal/migration"
	"github.com/plotset-corp/migration-gl-to-gh/internal/progress"
	"github.com/plotset-corp/migration-gl-to-gh/internal/rewrite"
)

const (
	executorAdvancesOneStepTestName          = "executor_advances_one_step_per_call"
	executorResumesFromClonedTestName        = "executor_resumes_from_cloned"
	executorReportsCloneFailureTestName      = "executor_reports_clone_failure"
	executorToleratesExistingRepoTestName    = "executor_tolerates_existing_destination"
	executorPropagatesCreateFailureTestName  = "executor_propagates_create_failure"
	executorSkipsRewriteWithoutIdentityName  = "executor_skips_rewrite_without_identity"
	batchIsolatesRepositoryFailureTestName   = "batch_isolates_repository_failure"
	batchSkipsForeignAndBlankRecordsTestName = "batch_skips_foreign_and_blank_records"
	batchHaltsOnStoreFailureTestName         = "batch_halts_on_store_failure"
	batchMigratesStoreRecordTestName         = "batch_migrates_store_record_end_to_end"
	singleRunCompletesTestName               = "single_run_completes_without_store"
	singleRunReportsFailureTestName          = "single_run_reports_push_failure"

	testSourceHostConstant       = "gitlab.example"
	testSourceURLConstant        = "https://gitlab.example/a/b"
	testForeignSourceURLConstant = "https://code.elsewhere.example/group/project"
	testSlugConstant             = "myrepo"
	testOrganizationConstant     = "plotset-corp"
	testDestinationHostConstant  = "github.com"
	testPrimaryBranchConstant    = "main"
	testAuthorNameConstant       = "PlotSet Bot"
	testAuthorEmailConstant      = "bot@plotset.example"
	testStoreFileNameConstant    = "progress.csv"
	testStoreHeaderConstant      = "source_url,slug,completed_steps\n"

	operationCloneMirrorConstant     = "clone_mirror"
	operationPrimaryBranchConstant   = "primary_branch"
	operationListBranchesConstant    = "list_branches"
	operationListTagsConstant        = "list_tags"
	operationPushBranchConstant      = "push_branch"
	operationPushAllBranchesConstant = "push_all_branches"
	operationPushAllTagsConstant     = "push_all_tags"
	operationCreateRepositoryName    = "create_repository"
	operationViewRepositoryName      = "view_repository"
	operationRewriteAuthorshipName   = "rewrite_authorship"

	testTagNameConstant             = "v1.0.0"
	testNameWithOwnerConstant       = "plotset-corp/myrepo"
	executorVerifiesDestinationName = "executor_reports_verification_failure"
)

type operationRecorder struct {
	operations []string
}

func (recorder *operationRecorder) record(operation string) {
	recorder.operations = append(recorder.operations, operation)
}

type fakeRepositoryMirror struct {
	recorder          *operationRecorder
	cloneError        error
	primaryBranchName string
	branchNames       []string
	tagNames          []string
	listBranchesError error
	pushBranchError   error
	clonedURLs        []string
	clonedPaths       []string
	pushDestinations  []string
	pushedBranches    []string
}

func (mirror *fakeRepositoryMirror) CloneMirror(_ context.Context, remoteURL string, destinationPath string) error {
	mirror.recorder.record(operationCloneMirrorConstant)
	if mirror.cloneError != nil {
		return mirror.cloneError
	}
	mirror.clonedURLs = append(mirror.clonedURLs, remoteURL)
	mirror.clonedPaths = append(mirror.clonedPaths, destinationPath)
	return nil
}

func (mirror *fakeRepositoryMirror) PrimaryBranch(_ context.Context, _ string) (string, error) {
	mirror.recorder.record(operationPrimaryBranchConstant)
	return mirror.primaryBranchName, nil
}

func (mirror *fakeRepositoryMirror) ListBranches(_ context.Context, _ string) ([]string, error) {
	mirror.recorder.record(operationListBranchesConstant)
	if mirror.listBranchesError != nil {
		return nil, mirror.listBranchesError
	}
	return mirror.branchNames, nil
}

func (mirror *fakeRepositoryMirror) ListTags(_ context.Context, _ string) ([]string, error) {
	mirror.recorder.record(operationListTagsConstant)
	return mirror.tagNames, nil
}

func (mirror *fakeRepositoryMirror) PushBranch(_ context.Context, _ string, destinationURL string, branchName string) error {
	mirror.recorder.record(operationPushBranchConstant)
	if mirror.pushBranchError != nil {
		return mirror.pushBranchError
	}
	mirror.pushDestinations = append(mirror.pushDestinations, destinationURL)
	mirror.pushedBranches = append(mirror.pushedBranches, branchName)
	return nil
}

func (mirror *fakeRepositoryMirror) PushAllBranches(_ context.Context, _ string, destinationURL string) error {
	mirror.recorder.record(operationPushAllBranchesConstant)
	return nil
}

func (mirror *fakeRepositoryMirror) PushAllTags(_ context.Context, _ string, destinationURL string) error {
	mirror.recorder.record(operationPushAllTagsConstant)
	return nil
}

type fakeHostingProvider struct {
	recorder           *operationRecorder
	createError        error
	viewError          error
	createdNames       []string
	organizations      []string
	viewedRepositories []string
	viewedMetadata     githubcli.RepositoryMetadata
}

func (provider *fakeHostingProvider) CreateRepository(_ context.Context, organization string, name string, _ githubcli.RepositoryVisibility) error {
	provider.recorder.record(operationCreateRepositoryName)
	if provider.createError != nil {
		return provider.createError
	}
	provider.organizations = append(provider.organizations, organization)
	provider.createdNames = append(provider.createdNames, name)
	return nil
}

func (provider *fakeHostingProvider) ViewRepository(_ context.Context, repository string) (githubcli.RepositoryMetadata, error) {
	provider.recorder.record(operationViewRepositoryName)
	if provider.viewError != nil {
		return githubcli.RepositoryMetadata{}, provider.viewError
	}
	provider.viewedRepositories = append(provider.viewedRepositories, repository)
	return provider.viewedMetadata, nil
}

type fakeHistoryRewriter struct {
	recorder   *operationRecorder
	identities []rewrite.AuthorIdentity
}

func (rewriter *fakeHistoryRewriter) RewriteAuthorship(_ context.Context, _ string, identity rewrite.AuthorIdentity) error {
	rewriter.recorder.record(operationRewriteAuthorshipName)
	rewriter.identities = append(rewriter.identities, identity)
	return nil
}

type serviceCollaborators struct {
	recorder *operationRecorder
	mirror   *fakeRepositoryMirror
	hosting  *fakeHostingProvider
	rewriter *fakeHistoryRewriter
}

func newServiceCollaborators() serviceCollaborators {
	recorder := &operationRecorder{}
	return serviceCollaborators{
		recorder: recorder,
		mirror: &fakeRepositoryMirror{
			recorder:          recorder,
			primaryBranchName: testPrimaryBranchConstant,
			branchNames:       []string{testPrimaryBranchConstant},
			tagNames:          []string{testTagNameConstant},
		},
		hosting: &fakeHostingProvider{
			recorder: recorder,
			viewedMetadata: githubcli.RepositoryMetadata{
				Name:          testSlugConstant,
				NameWithOwner: testNameWithOwnerConstant,
				DefaultBranch: testPrimaryBranchConstant,
			},
		},
		rewriter: &fakeHistoryRewriter{recorder: recorder},
	}
}

func buildService(testInstance *testing.T, collaborators serviceCollaborators, store *progress.Store) *migration.Service {
	service, creationError := migration.NewService(migration.ServiceDependencies{
		Logger:            zap.NewNop(),
		RepositoryManager: collaborators.mirror,
		HostingClient:     collaborators.hosting,
		HistoryRewriter:   collaborators.rewriter,
		Store:             store,
	})
	require.NoError(testInstance, creationError)
	return service
}

func buildOptions(cloneDirectory string) migration.MigrationOptions {
	return migration.MigrationOptions{
		SourceHost:              testSourceHostConstant,
		DestinationHost:         testDestinationHostConstant,
		DestinationOrganization: testOrganizationConstant,
		CloneDirectory:          cloneDirectory,
		RepositoryVisibility:    githubcli.RepositoryVisibilityPrivate,
	}
}

func writeStoreFile(testInstance *testing.T, content string) *progress.Store {
	storePath := filepath.Join(testInstance.TempDir(), testStoreFileNameConstant)
	require.NoError(testInstance, os.WriteFile(storePath, []byte(content), 0o644))
	store, storeError := progress.NewStore(storePath)
	require.NoError(testInstance, storeError)
	return store
}

type trackedStepRecorder struct {
	record        progress.Record
	markedSteps   []progress.Step
	markStepError error
}

func (recorder *trackedStepRecorder) NextPendingStep(string) (progress.Step, bool, error) {
	pendingStep, stepPending := recorder.record.NextPendingStep()
	return pendingStep, stepPending, nil
}

func (recorder *trackedStepRecorder) MarkStepComplete(_ string, step progress.Step) error {
	if recorder.markStepError != nil {
		return recorder.markStepError
	}
	recorder.markedSteps = append(recorder.markedSteps, step)
	recorder.record = recorder.record.WithCompletedStep(step)
	return nil
}

func TestExecutePendingStepsAdvancesOneStepPerCall(testInstance *testing.T) {
	collaborators := newServiceCollaborators()
	service := buildService(testInstance, collaborators, nil)
	workRecord := progress.Record{SourceURL: testSourceURLConstant, Slug: testSlugConstant}
	recorder := &trackedStepRecorder{record: workRecord}
	options := buildOptions(testInstance.TempDir())

	firstOutcome := service.ExecutePendingSteps(context.Background(), options, workRecord, recorder)
	require.Equal(testInstance, migration.OutcomeAdvanced, firstOutcome.Kind)
	require.Equal(testInstance, progress.StepCloned, firstOutcome.Step)
	require.Equal(testInstance, []string{operationCloneMirrorConstant}, collaborators.recorder.operations)

	secondOutcome := service.ExecutePendingSteps(context.Background(), options, workRecord, recorder)
	require.Equal(testInstance, migration.OutcomeAdvanced, secondOutcome.Kind)
	require.Equal(testInstance, progress.StepPushed, secondOutcome.Step)

	thirdOutcome := service.ExecutePendingSteps(context.Background(), options, workRecord, recorder)
	require.Equal(testInstance, migration.OutcomeCompleted, thirdOutcome.Kind)
	require.Equal(testInstance, []progress.Step{progress.StepCloned, progress.StepPushed}, recorder.markedSteps)
}

func TestExecutePendingStepsFailsWhenRecordingFails(testInstance *testing.T) {
	collaborators := newServiceCollaborators()
	service := buildService(testInstance, collaborators, nil)
	workRecord := progress.Record{SourceURL: testSourceURLConstant, Slug: testSlugConstant}
	recordingFailure := errors.New("disk full")
	recorder := &trackedStepRecorder{record: workRecord, markStepError: recordingFailure}

	outcome := service.ExecutePendingSteps(context.Background(), buildOptions(testInstance.TempDir()), workRecord, recorder)

	require.Equal(testInstance, migration.OutcomeFailed, outcome.Kind)
	require.ErrorIs(testInstance, outcome.Cause, recordingFailure)
}

func TestRunSingleExecutesStepsInOrder(testInstance *testing.T) {
	testInstance.Run(executorAdvancesOneStepTestName, func(testInstance *testing.T) {
		collaborators := newServiceCollaborators()
		service := buildService(testInstance, collaborators, nil)

		outcome, runError := service.RunSingle(context.Background(), buildOptions(testInstance.TempDir()), testSourceURLConstant, testSlugConstant)

		require.NoError(testInstance, runError)
		require.Equal(testInstance, migration.OutcomeCompleted, outcome.Kind)
		require.Equal(testInstance, []string{
			operationCloneMirrorConstant,
			operationCreateRepositoryName,
			operationListBranchesConstant,
			operationListTagsConstant,
			operationPrimaryBranchConstant,
			operationPushBranchConstant,
			operationPushAllBranchesConstant,
			operationPushAllTagsConstant,
			operationViewRepositoryName,
		}, collaborators.recorder.operations)
		require.Equal(testInstance, []string{testPrimaryBranchConstant}, collaborators.mirror.pushedBranches)
		require.Equal(testInstance, []string{testNameWithOwnerConstant}, collaborators.hosting.viewedRepositories)
	})
}

func TestRunSingleRewritesAuthorshipWhenIdentityConfigured(testInstance *testing.T) {
	collaborators := newServiceCollaborators()
	service := buildService(testInstance, collaborators, nil)

	options := buildOptions(testInstance.TempDir())
	options.AuthorIdentity = rewrite.AuthorIdentity{Name: testAuthorNameConstant, Email: testAuthorEmailConstant}

	outcome, runError := service.RunSingle(context.Background(), options, testSourceURLConstant, testSlugConstant)

	require.NoError(testInstance, runError)
	require.Equal(testInstance, migration.OutcomeCompleted, outcome.Kind)
	require.Equal(testInstance, []rewrite.AuthorIdentity{{Name: testAuthorNameConstant, Email: testAuthorEmailConstant}}, collaborators.rewriter.identities)

	rewriteIndex := indexOfOperation(collaborators.recorder.operations, operationRewriteAuthorshipName)
	createIndex := indexOfOperation(collaborators.recorder.operations, operationCreateRepositoryName)
	pushIndex := indexOfOperation(collaborators.recorder.operations, operationPushBranchConstant)
	require.Greater(testInstance, rewriteIndex, createIndex)
	require.Less(testInstance, rewriteIndex, pushIndex)
}

func TestRunSingleOutcomes(testInstance *testing.T) {
	testCases := []struct {
		name               string
		configure          func(collaborators serviceCollaborators)
		expectedKind       migration.OutcomeKind
		expectedFailedStep progress.Step
	}{
		{
			name: executorReportsCloneFailureTestName,
			configure: func(collaborators serviceCollaborators) {
				collaborators.mirror.cloneError = errors.New("remote unreachable")
			},
			expectedKind:       migration.OutcomeFailed,
			expectedFailedStep: progress.StepCloned,
		},
		{
			name: executorToleratesExistingRepoTestName,
			configure: func(collaborators serviceCollaborators) {
				collaborators.hosting.createError = fmt.Errorf("create: %w", githubcli.ErrRepositoryAlreadyExists)
			},
			expectedKind: migration.OutcomeCompleted,
		},
		{
			name: executorPropagatesCreateFailureTestName,
			configure: func(collaborators serviceCollaborators) {
				collaborators.hosting.createError = errors.New("api unavailable")
			},
			expectedKind:       migration.OutcomeFailed,
			expectedFailedStep: progress.StepPushed,
		},
		{
			name: singleRunReportsFailureTestName,
			configure: func(collaborators serviceCollaborators) {
				collaborators.mirror.pushBranchError = errors.New("push rejected")
			},
			expectedKind:       migration.OutcomeFailed,
			expectedFailedStep: progress.StepPushed,
		},
		{
			name: "executor_reports_branch_enumeration_failure",
			configure: func(collaborators serviceCollaborators) {
				collaborators.mirror.listBranchesError = errors.New("not a repository")
			},
			expectedKind:       migration.OutcomeFailed,
			expectedFailedStep: progress.StepPushed,
		},
		{
			name: executorVerifiesDestinationName,
			configure: func(collaborators serviceCollaborators) {
				collaborators.hosting.viewError = errors.New("repository not found")
			},
			expectedKind:       migration.OutcomeFailed,
			expectedFailedStep: progress.StepPushed,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			collaborators := newServiceCollaborators()
			testCase.configure(collaborators)
			service := buildService(testInstance, collaborators, nil)

			outcome, runError := service.RunSingle(context.Background(), buildOptions(testInstance.TempDir()), testSourceURLConstant, testSlugConstant)

			require.NoError(testInstance, runError)
			require.Equal(testInstance, testCase.expectedKind, outcome.Kind)
			if testCase.expectedKind == migration.OutcomeFailed {
				require.Equal(testInstance, testCase.expectedFailedStep, outcome.Step)
				require.Error(testInstance, outcome.Cause)
			}
		})
	}
}

func TestRunSingleSkipsRewriteWithoutIdentity(testInstance *testing.T) {
	testInstance.Run(executorSkipsRewriteWithoutIdentityName, func(testInstance *testing.T) {
		collaborators := newServiceCollaborators()
		service := buildService(testInstance, collaborators, nil)

		outcome, runError := service.RunSingle(context.Background(), buildOptions(testInstance.TempDir()), testSourceURLConstant, testSlugConstant)

		require.NoError(testInstance, runError)
		require.Equal(testInstance, migration.OutcomeCompleted, outcome.Kind)
		require.NotContains(testInstance, collaborators.recorder.operations, operationRewriteAuthorshipName)
	})
}

func TestRunBatchMigratesStoreRecordEndToEnd(testInstance *testing.T) {
	testInstance.Run(batchMigratesStoreRecordTestName, func(testInstance *testing.T) {
		storeContent := testStoreHeaderConstant + testSourceURLConstant + "," + testSlugConstant + ",\n"
		store := writeStoreFile(testInstance, storeContent)
		collaborators := newServiceCollaborators()
		service := buildService(testInstance, collaborators, store)

		summary, batchError := service.RunBatch(context.Background(), buildOptions(testInstance.TempDir()))

		require.NoError(testInstance, batchError)
		require.Equal(testInstance, 1, summary.Completed)
		require.Zero(testInstance, summary.Failed)
		require.Equal(testInstance, []string{testSlugConstant}, collaborators.hosting.createdNames)
		require.Len(testInstance, collaborators.mirror.pushedBranches, 1)
		require.Contains(testInstance, collaborators.recorder.operations, operationPushAllBranchesConstant)
		require.Contains(testInstance, collaborators.recorder.operations, operationPushAllTagsConstant)
		require.Contains(testInstance, collaborators.recorder.operations, operationViewRepositoryName)

		persistedContent, readError := os.ReadFile(store.Path())
		require.NoError(testInstance, readError)
		expectedContent := testStoreHeaderConstant + testSourceURLConstant + "," + testSlugConstant + ",cloned>pushed\n"
		require.Equal(testInstance, expectedContent, string(persistedContent))
	})
}

func TestRunBatchResumesFromRecordedSteps(testInstance *testing.T) {
	testInstance.Run(executorResumesFromClonedTestName, func(testInstance *testing.T) {
		storeContent := testStoreHeaderConstant + testSourceURLConstant + "," + testSlugConstant + ",cloned\n"
		store := writeStoreFile(testInstance, storeContent)
		collaborators := newServiceCollaborators()
		service := buildService(testInstance, collaborators, store)

		summary, batchError := service.RunBatch(context.Background(), buildOptions(testInstance.TempDir()))

		require.NoError(testInstance, batchError)
		require.Equal(testInstance, 1, summary.Completed)
		require.NotContains(testInstance, collaborators.recorder.operations, operationCloneMirrorConstant)
		require.Contains(testInstance, collaborators.recorder.operations, operationPushBranchConstant)
	})
}

func TestRunBatchIsolatesRepositoryFailure(testInstance *testing.T) {
	testInstance.Run(batchIsolatesRepositoryFailureTestName, func(testInstance *testing.T) {
		storeContent := testStoreHeaderConstant +
			testSourceURLConstant + "/broken,broken,\n" +
			testSourceURLConstant + "," + testSlugConstant + ",cloned\n"
		store := writeStoreFile(testInstance, storeContent)
		collaborators := newServiceCollaborators()
		collaborators.mirror.cloneError = errors.New("remote unreachable")
		service := buildService(testInstance, collaborators, store)

		summary, batchError := service.RunBatch(context.Background(), buildOptions(testInstance.TempDir()))

		require.NoError(testInstance, batchError)
		require.Equal(testInstance, 1, summary.Completed)
		require.Equal(testInstance, 1, summary.Failed)
		require.Len(testInstance, summary.Repositories, 2)
		require.Equal(testInstance, migration.OutcomeFailed, summary.Repositories[0].Outcome)
		require.Equal(testInstance, string(progress.StepCloned), summary.Repositories[0].FailedStep)
		require.Equal(testInstance, migration.OutcomeCompleted, summary.Repositories[1].Outcome)
	})
}

func TestRunBatchSkipsForeignAndBlankRecords(testInstance *testing.T) {
	testInstance.Run(batchSkipsForeignAndBlankRecordsTestName, func(testInstance *testing.T) {
		storeContent := testStoreHeaderConstant +
			testForeignSourceURLConstant + ",foreign,\n" +
			testSourceURLConstant + ",,\n"
		store := writeStoreFile(testInstance, storeContent)
		collaborators := newServiceCollaborators()
		service := buildService(testInstance, collaborators, store)

		summary, batchError := service.RunBatch(context.Background(), buildOptions(testInstance.TempDir()))

		require.NoError(testInstance, batchError)
		require.Equal(testInstance, 2, summary.Skipped)
		require.Empty(testInstance, collaborators.recorder.operations)
	})
}

func TestRunBatchHaltsWhenStoreUnreadable(testInstance *testing.T) {
	testInstance.Run(batchHaltsOnStoreFailureTestName, func(testInstance *testing.T) {
		storePath := filepath.Join(testInstance.TempDir(), testStoreFileNameConstant)
		store, storeError := progress.NewStore(storePath)
		require.NoError(testInstance, storeError)
		collaborators := newServiceCollaborators()
		service := buildService(testInstance, collaborators, store)

		_, batchError := service.RunBatch(context.Background(), buildOptions(testInstance.TempDir()))

		require.Error(testInstance, batchError)
		accessError := progress.StoreAccessError{}
		require.ErrorAs(testInstance, batchError, &accessError)
		require.Empty(testInstance, collaborators.recorder.operations)
	})
}

func TestRunBatchRequiresStore(testInstance *testing.T) {
	collaborators := newServiceCollaborators()
	service := buildService(testInstance, collaborators, nil)

	_, batchError := service.RunBatch(context.Background(), buildOptions(testInstance.TempDir()))

	require.ErrorIs(testInstance, batchError, migration.ErrStoreNotConfigured)
}

func TestRunSingleValidatesInputs(testInstance *testing.T) {
	testCases := []struct {
		name      string
		sourceURL string
		slug      string
		mutate    func(options *migration.MigrationOptions)
	}{
		{name: "missing_source_url", sourceURL: "", slug: testSlugConstant},
		{name: "missing_slug", sourceURL: testSourceURLConstant, slug: ""},
		{
			name:      "missing_organization",
			sourceURL: testSourceURLConstant,
			slug:      testSlugConstant,
			mutate: func(options *migration.MigrationOptions) {
				options.DestinationOrganization = ""
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			collaborators := newServiceCollaborators()
			service := buildService(testInstance, collaborators, nil)

			options := buildOptions(testInstance.TempDir())
			if testCase.mutate != nil {
				testCase.mutate(&options)
			}

			_, runError := service.RunSingle(context.Background(), options, testCase.sourceURL, testCase.slug)

			inputError := migration.InvalidInputError{}
			require.ErrorAs(testInstance, runError, &inputError)
			require.Empty(testInstance, collaborators.recorder.operations)
		})
	}
}

func indexOfOperation(operations []string, operation string) int {
	for operationIndex, recordedOperation := range operations {
		if recordedOperation == operation {
			return operationIndex
		}
	}
	return -1
}
