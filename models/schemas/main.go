package schemas

import (
	"candig/metadata/models/constants"
)

const (
	KIND_CLINICAL constants.TableKind = "clinical"
	KIND_PIPELINE constants.TableKind = "pipeline"
)

type Field struct {
	Name    string
	Numeric bool
}

/*
	Table describes one searchable registry table :
	it's response key, the join key linking rows to
	a logical patient (or sample for pipeline tables),
	and the ordered set of domain fields. Every domain
	field carries a companion tier value on each row ;
	the tier is data, not schema.
*/
type Table struct {
	Name    string
	Kind    constants.TableKind
	JoinKey string
	Fields  []Field
}

func (t *Table) HasField(name string) bool {
	for _, f := range t.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (t *Table) IsNumeric(name string) bool {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Numeric
		}
	}
	return false
}

func GetTable(name string) (*Table, bool) {
	table, ok := tablesByName[name]
	return table, ok
}

func TableNames() []string {
	names := make([]string, 0, len(tablesByName))
	for _, t := range allTables {
		names = append(names, t.Name)
	}
	return names
}

var tablesByName = map[string]*Table{}

func init() {
	for _, t := range allTables {
		tablesByName[t.Name] = t
	}
}

func fields(names ...string) []Field {
	fs := make([]Field, 0, len(names))
	for _, n := range names {
		fs = append(fs, Field{Name: n})
	}
	return fs
}

func numeric(fs []Field, names ...string) []Field {
	for i := range fs {
		for _, n := range names {
			if fs[i].Name == n {
				fs[i].Numeric = true
			}
		}
	}
	return fs
}

var allTables = []*Table{
	{
		Name: "patients", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: fields(
			"patientId", "otherIds", "dateOfBirth", "gender", "ethnicity",
			"race", "provinceOfResidence", "dateOfDeath", "causeOfDeath",
			"autopsyTissueForResearch", "priorMalignancy", "dateOfPriorMalignancy",
			"familyHistoryAndRiskFactors", "familyHistoryOfPredispositionSyndrome",
			"detailsOfPredispositionSyndrome", "geneticCancerSyndrome",
			"otherGeneticConditionOrSignificantComorbidity",
			"occupationalOrEnvironmentalExposure"),
	},
	{
		Name: "enrollments", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: numeric(fields(
			"patientId", "enrollmentInstitution", "enrollmentApprovalDate",
			"crossEnrollment", "otherPersonalizedMedicineStudyName",
			"otherPersonalizedMedicineStudyId", "ageAtEnrollment",
			"eligibilityCategory", "statusAtEnrollment", "primaryOncologistName",
			"primaryOncologistContact", "referringPhysicianName",
			"referringPhysicianContact", "summaryOfIdRequest",
			"treatingCentreName", "treatingCentreProvince"),
			"ageAtEnrollment"),
	},
	{
		Name: "consents", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: fields(
			"patientId", "consentId", "consentDate", "consentVersion",
			"patientConsentedTo", "reasonForRejection", "wasAssentObtained",
			"dateOfAssent", "assentFormVersion", "ifAssentNotObtainedWhyNot",
			"reconsentDate", "reconsentVersion", "consentingCoordinatorName",
			"previouslyConsented", "nameOfOtherBiobank", "hasConsentBeenWithdrawn",
			"dateOfConsentWithdrawal", "typeOfConsentWithdrawal",
			"reasonForConsentWithdrawal", "consentFormComplete"),
	},
	{
		Name: "diagnoses", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: numeric(fields(
			"patientId", "diagnosisId", "diagnosisDate", "ageAtDiagnosis",
			"cancerType", "classification", "cancerSite", "histology",
			"methodOfDefinitiveDiagnosis", "sampleType", "sampleSite",
			"tumorGrade", "gradingSystemUsed", "sitesOfMetastases",
			"stagingSystem", "versionOrEditionOfTheStagingSystem",
			"specificTumorStageAtDiagnosis", "prognosticBiomarkers",
			"biomarkerQuantification", "additionalMolecularTesting",
			"additionalTestType", "laboratoryName", "laboratoryAddress",
			"siteOfMetastases", "stagingSystemVersion", "specificStage",
			"cancerSpecificBiomarkers",
			"additionalMolecularDiagnosticTestingPerformed", "additionalTest"),
			"ageAtDiagnosis"),
	},
	{
		Name: "samples", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: numeric(fields(
			"patientId", "sampleId", "diagnosisId", "localBiobankId",
			"collectionDate", "collectionHospital", "sampleType",
			"tissueDiseaseState", "anatomicSiteTheSampleObtainedFrom",
			"cancerType", "cancerSubtype", "pathologyReportId",
			"morphologicalCode", "topologicalCode", "shippingDate",
			"receivedDate", "qualityControlPerformed", "estimatedTumorContent",
			"quantity", "units", "associatedBiobank", "otherBiobank",
			"sopFollowed", "ifNotExplainAnyDeviation", "recordingDate",
			"startInterval"),
			"estimatedTumorContent", "quantity", "startInterval"),
	},
	{
		Name: "treatments", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: fields(
			"patientId", "courseNumber", "therapeuticModality",
			"treatmentPlanType", "treatmentIntent", "startDate", "stopDate",
			"reasonForEndingTheTreatment", "responseToTreatment",
			"responseCriteriaUsed",
			"dateOfRecurrenceOrProgressionAfterThisTreatment",
			"unexpectedOrUnusualToxicityDuringTreatment",
			"diagnosisId", "treatmentPlanId"),
	},
	{
		Name: "outcomes", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: numeric(fields(
			"patientId", "physicalExamId", "dateOfAssessment",
			"diseaseResponseOrStatus", "otherResponseClassification",
			"minimalResidualDiseaseAssessment", "methodOfResponseEvaluation",
			"responseCriteriaUsed", "summaryStage",
			"sitesOfAnyProgressionOrRecurrence", "vitalStatus", "height",
			"weight", "heightUnits", "weightUnits", "performanceStatus",
			"overallSurvivalInMonths", "diseaseFreeSurvivalInMonths"),
			"height", "weight", "overallSurvivalInMonths",
			"diseaseFreeSurvivalInMonths"),
	},
	{
		Name: "complications", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: fields(
			"patientId", "date", "lateComplicationOfTherapyDeveloped",
			"lateToxicityDetail", "suspectedTreatmentInducedNeoplasmDeveloped",
			"treatmentInducedNeoplasmDetails"),
	},
	{
		Name: "tumourboards", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: fields(
			"patientId", "dateOfMolecularTumorBoard", "typeOfSampleAnalyzed",
			"typeOfTumourSampleAnalyzed", "analysesDiscussed",
			"somaticSampleType", "normalExpressionComparator",
			"diseaseExpressionComparator",
			"hasAGermlineVariantBeenIdentifiedByProfilingThatMayPredisposeToCancer",
			"actionableTargetFound", "molecularTumorBoardRecommendation",
			"germlineDnaSampleId", "tumorDnaSampleId", "tumorRnaSampleId",
			"germlineSnvDiscussed", "somaticSnvDiscussed", "cnvsDiscussed",
			"structuralVariantDiscussed", "classificationOfVariants",
			"clinicalValidationProgress", "typeOfValidation",
			"agentOrDrugClass",
			"levelOfEvidenceForExpressionTargetAgentMatch",
			"didTreatmentPlanChangeBasedOnProfilingResult",
			"howTreatmentHasAlteredBasedOnProfiling",
			"reasonTreatmentPlanDidNotChangeBasedOnProfiling",
			"detailsOfTreatmentPlanImpact",
			"patientOrFamilyInformedOfGermlineVariant",
			"patientHasBeenReferredToAHereditaryCancerProgramBasedOnThisMolecularProfiling",
			"summaryReport"),
	},
	{
		Name: "chemotherapies", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: numeric(fields(
			"patientId", "courseNumber", "startDate", "stopDate",
			"systematicTherapyAgentName", "route", "dose", "doseFrequency",
			"doseUnit", "daysPerCycle", "numberOfCycle", "treatmentIntent",
			"treatingCentreName", "type", "protocolCode", "recordingDate",
			"treatmentPlanId"),
			"dose", "daysPerCycle", "numberOfCycle"),
	},
	{
		Name: "radiotherapies", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: numeric(fields(
			"patientId", "courseNumber", "startDate", "stopDate",
			"therapeuticModality", "baseline", "testResult", "testResultStd",
			"treatingCentreName", "startIntervalRad", "startIntervalRadRaw",
			"recordingDate", "adjacentFields", "adjacentFractions", "complete",
			"brachytherapyDose", "siteNumber", "technique", "treatedRegion",
			"treatmentPlanId", "radiationType", "radiationSite", "totalDose",
			"boostSite", "boostDose"),
			"brachytherapyDose", "totalDose", "boostDose", "siteNumber"),
	},
	{
		Name: "surgeries", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: fields(
			"patientId", "startDate", "stopDate", "sampleId",
			"collectionTimePoint", "diagnosisDate", "site", "type",
			"recordingDate", "treatmentPlanId", "courseNumber"),
	},
	{
		Name: "immunotherapies", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: fields(
			"patientId", "startDate", "immunotherapyType",
			"immunotherapyTarget", "immunotherapyDetail", "treatmentPlanId",
			"courseNumber"),
	},
	{
		Name: "celltransplants", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: fields(
			"patientId", "startDate", "cellSource", "donorType",
			"treatmentPlanId", "courseNumber"),
	},
	{
		Name: "slides", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: numeric(fields(
			"patientId", "sampleId", "slideId", "slideOtherId",
			"lymphocyteInfiltrationPercent", "tumorNucleiPercent",
			"monocyteInfiltrationPercent", "normalCellsPercent",
			"tumorCellsPercent", "stromalCellsPercent",
			"eosinophilInfiltrationPercent", "neutrophilInfiltrationPercent",
			"granulocyteInfiltrationPercent", "necrosisPercent",
			"inflammatoryInfiltrationPercent", "proliferatingCellsNumber",
			"sectionLocation"),
			"lymphocyteInfiltrationPercent", "tumorNucleiPercent",
			"monocyteInfiltrationPercent", "normalCellsPercent",
			"tumorCellsPercent", "stromalCellsPercent",
			"eosinophilInfiltrationPercent", "neutrophilInfiltrationPercent",
			"granulocyteInfiltrationPercent", "necrosisPercent",
			"inflammatoryInfiltrationPercent", "proliferatingCellsNumber"),
	},
	{
		Name: "studies", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: fields(
			"patientId", "startDate", "endDate", "status", "recordingDate"),
	},
	{
		Name: "labtests", Kind: KIND_CLINICAL, JoinKey: "patientId",
		Fields: fields(
			"patientId", "startDate", "endDate", "collectionDate",
			"eventType", "testResults", "timePoint", "recordingDate"),
	},

	{
		Name: "extractions", Kind: KIND_PIPELINE, JoinKey: "sampleId",
		Fields: fields(
			"extractionId", "sampleId", "rnaBlood", "dnaBlood", "rnaTissue",
			"dnaTissue", "site"),
	},
	{
		Name: "sequencing", Kind: KIND_PIPELINE, JoinKey: "sampleId",
		Fields: numeric(fields(
			"sequencingId", "sampleId", "dnaLibraryKit", "dnaSeqPlatform",
			"dnaReadLength", "rnaLibraryKit", "rnaSeqPlatform",
			"rnaReadLength", "pcrCycles", "extractionId", "site"),
			"dnaReadLength", "rnaReadLength", "pcrCycles"),
	},
	{
		Name: "alignments", Kind: KIND_PIPELINE, JoinKey: "sampleId",
		Fields: fields(
			"alignmentId", "sampleId", "inHousePipeline", "alignmentTool",
			"mergeTool", "markDuplicates", "realignerTarget", "indelRealigner",
			"baseRecalibrator", "printReads", "idxStats", "flagStat",
			"coverage", "insertSizeMetrics", "fastqc", "reference",
			"sequencingId", "site"),
	},
	{
		Name: "variantcalling", Kind: KIND_PIPELINE, JoinKey: "sampleId",
		Fields: fields(
			"variantCallingId", "sampleId", "inHousePipeline", "variantCaller",
			"tabulate", "annotation", "mergeTool", "rdaToTab", "delly",
			"postFilter", "clipFilter", "cosmic", "dbSnp", "alignmentId",
			"site"),
	},
	{
		Name: "fusiondetection", Kind: KIND_PIPELINE, JoinKey: "sampleId",
		Fields: fields(
			"fusionDetectionId", "sampleId", "inHousePipeline", "svDetection",
			"fusionDetection", "realignment", "annotation", "genomeReference",
			"geneModels", "alignmentId", "site"),
	},
	{
		Name: "expressionanalysis", Kind: KIND_PIPELINE, JoinKey: "sampleId",
		Fields: numeric(fields(
			"expressionAnalysisId", "sampleId", "readLength", "reference",
			"alignmentTool", "bamHandling", "expressionEstimation",
			"sequencingId", "site"),
			"readLength"),
	},
}
